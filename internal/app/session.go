package app

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/logger"
	"ai-ops-scorecard/internal/metrics"
	"ai-ops-scorecard/internal/scoring"
)

const (
	// DefaultStorageKey is the key prefix of persisted progress records.
	DefaultStorageKey = "ai-ops-scorecard-progress"
	// DefaultAdvanceDelay is how long an answer stays visible before the quiz moves on.
	DefaultAdvanceDelay = 300 * time.Millisecond
	// DefaultProgressExpiry is how long saved progress stays resumable.
	DefaultProgressExpiry = 24 * time.Hour
)

// ProgressStore persists one serialized progress record per key.
// Get returns domain.ErrProgressNotFound when nothing is stored.
type ProgressStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Scheduler runs f once after d. The returned func cancels a pending run.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScheduler replaces the timer used for auto-advance.
func WithScheduler(scheduler Scheduler) SessionOption {
	return func(s *Session) {
		if scheduler != nil {
			s.scheduler = scheduler
		}
	}
}

// WithAdvanceDelay sets the pause between an answer and the move to the next question.
func WithAdvanceDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.advanceDelay = d
		}
	}
}

// WithProgressExpiry sets how long saved progress stays resumable.
func WithProgressExpiry(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.progressExpiry = d
		}
	}
}

// WithStorageKey sets the key the session's progress is saved under.
func WithStorageKey(key string) SessionOption {
	return func(s *Session) {
		if key != "" {
			s.storageKey = key
		}
	}
}

// WithLogger sets the logger for storage failures.
func WithLogger(log logger.Logger) SessionOption {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics manager; the process-wide one is used otherwise.
func WithMetrics(m *metrics.Manager) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Session is the state machine of one respondent walking through the scorecard.
// All transitions are serialized by mu; auto-advance re-validates state when it fires.
type Session struct {
	id             string
	storageKey     string
	catalog        domain.Catalog
	store          ProgressStore
	scheduler      Scheduler
	advanceDelay   time.Duration
	progressExpiry time.Duration
	now            func() time.Time
	log            logger.Logger
	metrics        *metrics.Manager

	mu          sync.Mutex
	state       domain.SessionState
	resumable   bool
	sharedView  bool
	closed      bool
	advanceGen  uint64
	stopAdvance func() bool
	updatedAt   time.Time
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession creates a session on the landing screen.
func NewSession(id string, catalog domain.Catalog, store ProgressStore, opts ...SessionOption) *Session {
	s := &Session{
		id:             id,
		storageKey:     DefaultStorageKey,
		catalog:        catalog,
		store:          store,
		scheduler:      timerScheduler{},
		advanceDelay:   DefaultAdvanceDelay,
		progressExpiry: DefaultProgressExpiry,
		now:            time.Now,
		log:            logger.Nop(),
		metrics:        metrics.Default(),
		state:          domain.InitialState(),
		subscribers:    make(map[chan domain.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.String("session_id", id))
	s.updatedAt = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Catalog returns the reference tables the session scores against.
func (s *Session) Catalog() domain.Catalog { return s.catalog }

// Start begins a fresh quiz and discards any saved progress.
func (s *Session) Start(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(ctx)
	return s.broadcastLocked()
}

func (s *Session) startLocked(ctx context.Context) {
	s.cancelAdvanceLocked()
	s.clearProgressLocked(ctx)
	s.state.Screen = domain.ScreenQuiz
	s.state.CurrentQuestion = 0
	s.state.Answers = domain.Answers{}
	s.sharedView = false
	s.metrics.QuizStarted()
}

// Resume restores saved progress. Missing or expired records leave the state unchanged;
// a malformed record falls back to Start.
func (s *Session) Resume(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, status := s.readProgressLocked(ctx)
	switch status {
	case progressValid:
		s.cancelAdvanceLocked()
		s.state.Screen = domain.ScreenQuiz
		s.state.CurrentQuestion = progress.CurrentQuestion
		s.state.Answers = progress.Answers
		s.resumable = false
		s.sharedView = false
		s.metrics.QuizStarted()
	case progressMalformed:
		s.log.Warn(ctx, "saved progress is malformed, starting over")
		s.startLocked(ctx)
	case progressStale:
		s.clearProgressLocked(ctx)
	default:
		s.resumable = false
	}
	return s.broadcastLocked()
}

// CheckSavedProgress reports whether a resumable record exists, discarding unusable ones.
func (s *Session) CheckSavedProgress(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, status := s.readProgressLocked(ctx)
	switch status {
	case progressValid:
		s.resumable = true
	case progressMalformed, progressStale:
		s.clearProgressLocked(ctx)
	default:
		s.resumable = false
	}
	return s.resumable
}

// Answer records score for the current question, saves progress and schedules the advance.
func (s *Session) Answer(ctx context.Context, score int) (domain.Snapshot, error) {
	if !domain.ValidScore(score) {
		return domain.Snapshot{}, domain.ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, domain.ErrSessionClosed
	}
	if s.state.Screen != domain.ScreenQuiz {
		return domain.Snapshot{}, domain.ErrUnexpectedScreen
	}

	index := s.state.CurrentQuestion
	s.state.Answers[index] = domain.Score(score)
	s.saveProgressLocked(ctx)
	s.metrics.AnswerRecorded(string(domain.SectionForIndex(index)), strconv.Itoa(score))

	// A newer answer supersedes any advance still pending for an earlier one.
	s.cancelAdvanceLocked()
	gen := s.advanceGen
	s.stopAdvance = s.scheduler.AfterFunc(s.advanceDelay, func() {
		s.advance(gen, index)
	})
	return s.broadcastLocked(), nil
}

func (s *Session) advance(gen uint64, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.advanceGen {
		return
	}
	s.stopAdvance = nil
	if s.state.Screen != domain.ScreenQuiz || s.state.CurrentQuestion != index {
		return
	}

	next := index + 1
	switch {
	case domain.IsSectionBoundary(next):
		s.state.Screen = domain.ScreenTransition
	case next >= domain.QuestionCount:
		s.clearProgressLocked(context.Background())
		s.state.Screen = domain.ScreenLeadCapture
		s.metrics.QuizCompleted()
	default:
		s.state.CurrentQuestion = next
	}
	s.broadcastLocked()
}

// GoBack moves to the previous question. It never clears answers.
func (s *Session) GoBack() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CurrentQuestion > 0 {
		s.state.CurrentQuestion--
	}
	return s.broadcastLocked()
}

// ContinueFromTransition leaves the section interstitial for the next question.
func (s *Session) ContinueFromTransition() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Screen != domain.ScreenTransition {
		return domain.Snapshot{}, domain.ErrUnexpectedScreen
	}
	s.state.Screen = domain.ScreenQuiz
	if s.state.CurrentQuestion < domain.QuestionCount-1 {
		s.state.CurrentQuestion++
	}
	return s.broadcastLocked(), nil
}

// SubmitLead stores the contact and shows results.
func (s *Session) SubmitLead(lead domain.LeadData) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Screen != domain.ScreenLeadCapture {
		return domain.Snapshot{}, domain.ErrUnexpectedScreen
	}
	s.state.Lead = &lead
	s.state.Screen = domain.ScreenResults
	return s.broadcastLocked(), nil
}

// SkipLead shows results without a contact.
func (s *Session) SkipLead() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Screen != domain.ScreenLeadCapture {
		return domain.Snapshot{}, domain.ErrUnexpectedScreen
	}
	s.state.Screen = domain.ScreenResults
	return s.broadcastLocked(), nil
}

// Restart wipes saved progress and returns to the landing screen.
func (s *Session) Restart(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAdvanceLocked()
	s.clearProgressLocked(ctx)
	s.state = domain.InitialState()
	s.sharedView = false
	return s.broadcastLocked()
}

// ExitToLanding returns to the landing screen. Leaving an unfinished quiz with answers saves
// progress; leaving results, the lead screen or a shared view writes nothing.
func (s *Session) ExitToLanding(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAdvanceLocked()

	midQuiz := s.state.Screen == domain.ScreenQuiz || s.state.Screen == domain.ScreenTransition
	if midQuiz && !s.sharedView && s.state.Answers.HasProgress() {
		s.saveProgressLocked(ctx)
		s.resumable = true
	}
	if s.sharedView {
		// Reconstructed answers never outlive the shared view.
		s.state = domain.InitialState()
		s.sharedView = false
	}
	s.state.Screen = domain.ScreenLanding
	return s.broadcastLocked()
}

// CurrentSection is the section of the current question.
func (s *Session) CurrentSection() domain.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SectionForIndex(s.state.CurrentQuestion)
}

// LoadFromExternalScores shows results rebuilt from shared section totals.
func (s *Session) LoadFromExternalScores(sales, marketing, ops int) (domain.Snapshot, error) {
	answers, err := scoring.ReconstructAnswers(sales, marketing, ops)
	if err != nil {
		return domain.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAdvanceLocked()
	s.state = domain.SessionState{
		Screen:  domain.ScreenResults,
		Answers: answers,
	}
	s.sharedView = true
	s.metrics.SharedViewLoaded()
	return s.broadcastLocked(), nil
}

// State returns the current snapshot.
func (s *Session) State() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Results scores the current answer sheet.
func (s *Session) Results() domain.Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := scoring.Results(s.catalog, s.state.Answers)
	results.SharedView = s.sharedView
	return results
}

// Subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close cancels the pending advance and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelAdvanceLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) cancelAdvanceLocked() {
	s.advanceGen++
	if s.stopAdvance != nil {
		s.stopAdvance()
		s.stopAdvance = nil
	}
}

func (s *Session) broadcastLocked() domain.Snapshot {
	s.updatedAt = s.now()
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest update so a slow subscriber never blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	state := s.state
	if state.Lead != nil {
		lead := *state.Lead
		state.Lead = &lead
	}
	return domain.Snapshot{
		SessionID:        s.id,
		SessionState:     state,
		Section:          domain.SectionForIndex(state.CurrentQuestion),
		HasSavedProgress: s.resumable,
		SharedView:       s.sharedView,
		UpdatedAt:        s.updatedAt,
	}
}

type progressStatus int

const (
	progressMissing progressStatus = iota
	progressValid
	progressMalformed
	progressStale
)

// storedProgress mirrors domain.Progress with a slice so short or long records are detectable.
type storedProgress struct {
	CurrentQuestion *int      `json:"currentQuestion"`
	Answers         []*int    `json:"answers"`
	SavedAt         time.Time `json:"savedAt"`
}

func (s *Session) readProgressLocked(ctx context.Context) (domain.Progress, progressStatus) {
	raw, err := s.store.Get(ctx, s.storageKey)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return domain.Progress{}, progressMissing
	}
	if err != nil {
		s.log.Warn(ctx, "failed to read saved progress", logger.Error(err))
		s.metrics.StorageError("get")
		return domain.Progress{}, progressMissing
	}

	progress, ok := decodeProgress(raw)
	if !ok {
		return domain.Progress{}, progressMalformed
	}
	if s.now().Sub(progress.SavedAt) >= s.progressExpiry || !progress.Answers.HasProgress() {
		return domain.Progress{}, progressStale
	}
	return progress, progressValid
}

func decodeProgress(raw string) (domain.Progress, bool) {
	var stored storedProgress
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return domain.Progress{}, false
	}
	if stored.CurrentQuestion == nil || stored.SavedAt.IsZero() || len(stored.Answers) != domain.QuestionCount {
		return domain.Progress{}, false
	}
	if *stored.CurrentQuestion < 0 || *stored.CurrentQuestion >= domain.QuestionCount {
		return domain.Progress{}, false
	}

	progress := domain.Progress{CurrentQuestion: *stored.CurrentQuestion, SavedAt: stored.SavedAt}
	for i, v := range stored.Answers {
		if v != nil && !domain.ValidScore(*v) {
			return domain.Progress{}, false
		}
		progress.Answers[i] = v
	}
	return progress, true
}

func encodeProgress(progress domain.Progress) (string, error) {
	b, err := json.Marshal(progress)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Session) saveProgressLocked(ctx context.Context) {
	raw, err := encodeProgress(domain.Progress{
		CurrentQuestion: s.state.CurrentQuestion,
		Answers:         s.state.Answers,
		SavedAt:         s.now().UTC(),
	})
	if err == nil {
		err = s.store.Set(ctx, s.storageKey, raw)
	}
	if err != nil {
		s.log.Warn(ctx, "failed to save progress", logger.Error(err))
		s.metrics.StorageError("set")
	}
}

func (s *Session) clearProgressLocked(ctx context.Context) {
	s.resumable = false
	if err := s.store.Remove(ctx, s.storageKey); err != nil && !errors.Is(err, domain.ErrProgressNotFound) {
		s.log.Warn(ctx, "failed to clear saved progress", logger.Error(err))
		s.metrics.StorageError("remove")
	}
}
