package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-ops-scorecard/internal/app"
	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/infra/memory"
	"ai-ops-scorecard/internal/metrics"
)

// manualScheduler runs pending callbacks only when Fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*pendingRun
}

type pendingRun struct {
	f    func()
	done bool
}

func (m *manualScheduler) AfterFunc(_ time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := &pendingRun{f: f}
	m.pending = append(m.pending, run)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if run.done {
			return false
		}
		run.done = true
		return true
	}
}

// Fire runs every pending callback and returns how many ran.
func (m *manualScheduler) Fire() int {
	m.mu.Lock()
	var due []func()
	for _, run := range m.pending {
		if !run.done {
			run.done = true
			due = append(due, run.f)
		}
	}
	m.pending = nil
	m.mu.Unlock()

	for _, f := range due {
		f()
	}
	return len(due)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store     *memory.ProgressStore
	scheduler *manualScheduler
	clock     *testClock
}

func newHarness() *harness {
	return &harness{
		store:     memory.NewProgressStore(),
		scheduler: &manualScheduler{},
		clock:     newTestClock(),
	}
}

func (h *harness) session(id string) *app.Session {
	return app.NewSession(id, domain.DefaultCatalog(), h.store,
		app.WithScheduler(h.scheduler),
		app.WithClock(h.clock.Now),
		app.WithMetrics(metrics.NewManager()),
	)
}

func (h *harness) saveProgress(t *testing.T, index int, savedAt time.Time, scores ...int) {
	t.Helper()
	var answers domain.Answers
	for i, v := range scores {
		answers[i] = domain.Score(v)
	}
	raw, err := json.Marshal(domain.Progress{CurrentQuestion: index, Answers: answers, SavedAt: savedAt})
	if err != nil {
		t.Fatalf("marshal progress: %v", err)
	}
	if err := h.store.Set(context.Background(), app.DefaultStorageKey, string(raw)); err != nil {
		t.Fatalf("seed progress: %v", err)
	}
}

func (h *harness) hasProgress() bool {
	_, err := h.store.Get(context.Background(), app.DefaultStorageKey)
	return err == nil
}

// answerAll answers each score in turn, firing the advance and leaving transitions.
func answerAll(t *testing.T, h *harness, s *app.Session, scores ...int) {
	t.Helper()
	ctx := context.Background()
	for _, v := range scores {
		if _, err := s.Answer(ctx, v); err != nil {
			t.Fatalf("answer %d at %d: %v", v, s.State().CurrentQuestion, err)
		}
		h.scheduler.Fire()
		if s.State().Screen == domain.ScreenTransition {
			if _, err := s.ContinueFromTransition(); err != nil {
				t.Fatalf("continue: %v", err)
			}
		}
	}
}

func TestAnswerAdvancesOnlyAfterDelay(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	snap, err := s.Answer(context.Background(), 2)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if snap.CurrentQuestion != 0 || *snap.Answers[0] != 2 {
		t.Fatalf("expected answer recorded on question 0, got %+v", snap)
	}
	if !h.hasProgress() {
		t.Fatalf("expected progress saved on answer")
	}

	if fired := h.scheduler.Fire(); fired != 1 {
		t.Fatalf("expected one pending advance, got %d", fired)
	}
	if got := s.State().CurrentQuestion; got != 1 {
		t.Fatalf("expected question 1, got %d", got)
	}
}

func TestSectionBoundaryShowsTransition(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	for i := 0; i < 5; i++ {
		if _, err := s.Answer(context.Background(), 1); err != nil {
			t.Fatalf("answer: %v", err)
		}
		h.scheduler.Fire()
	}

	snap := s.State()
	if snap.Screen != domain.ScreenTransition || snap.CurrentQuestion != 4 {
		t.Fatalf("expected transition at question 4, got %s at %d", snap.Screen, snap.CurrentQuestion)
	}
	if _, err := s.Answer(context.Background(), 1); !errors.Is(err, domain.ErrUnexpectedScreen) {
		t.Fatalf("expected answers rejected on transition, got %v", err)
	}

	snap, err := s.ContinueFromTransition()
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if snap.Screen != domain.ScreenQuiz || snap.CurrentQuestion != 5 || snap.Section != domain.SectionMarketing {
		t.Fatalf("expected marketing question 5, got %+v", snap)
	}
	if _, err := s.ContinueFromTransition(); !errors.Is(err, domain.ErrUnexpectedScreen) {
		t.Fatalf("expected second continue rejected, got %v", err)
	}
}

func TestCompletionMovesToLeadCaptureAndClearsProgress(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	answerAll(t, h, s, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0)

	snap := s.State()
	if snap.Screen != domain.ScreenLeadCapture {
		t.Fatalf("expected lead capture, got %s", snap.Screen)
	}
	if h.hasProgress() {
		t.Fatalf("expected progress removed after completion")
	}

	snap, err := s.SubmitLead(domain.LeadData{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("submit lead: %v", err)
	}
	if snap.Screen != domain.ScreenResults || snap.Lead == nil || snap.Lead.Email != "ada@example.com" {
		t.Fatalf("expected results with lead, got %+v", snap)
	}

	results := s.Results()
	if results.Scores != (domain.Scores{Sales: 10, Marketing: 5, Ops: 0, Total: 15}) || results.Tier.ID != "progressing" {
		t.Fatalf("unexpected results %+v", results.Scores)
	}
}

func TestSkipLeadShowsResults(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	if _, err := s.SkipLead(); !errors.Is(err, domain.ErrUnexpectedScreen) {
		t.Fatalf("expected skip rejected mid-quiz, got %v", err)
	}
	answerAll(t, h, s, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)

	snap, err := s.SkipLead()
	if err != nil {
		t.Fatalf("skip lead: %v", err)
	}
	if snap.Screen != domain.ScreenResults || snap.Lead != nil {
		t.Fatalf("expected results without lead, got %+v", snap)
	}
}

func TestNewerAnswerCancelsPendingAdvance(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	_, _ = s.Answer(context.Background(), 0)
	_, _ = s.Answer(context.Background(), 2)

	if fired := h.scheduler.Fire(); fired != 1 {
		t.Fatalf("expected only the latest advance to run, got %d", fired)
	}
	snap := s.State()
	if snap.CurrentQuestion != 1 || *snap.Answers[0] != 2 || snap.Answers[1] != nil {
		t.Fatalf("expected one step with the last answer kept, got %+v", snap)
	}
}

func TestGoBackBeforeAdvanceFires(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	answerAll(t, h, s, 1)

	_, _ = s.Answer(context.Background(), 2)
	if snap := s.GoBack(); snap.CurrentQuestion != 0 {
		t.Fatalf("expected question 0, got %d", snap.CurrentQuestion)
	}
	h.scheduler.Fire()

	snap := s.State()
	if snap.CurrentQuestion != 0 || snap.Screen != domain.ScreenQuiz {
		t.Fatalf("stale advance moved the quiz: %+v", snap)
	}
	if *snap.Answers[1] != 2 {
		t.Fatalf("expected going back to keep answers")
	}

	if snap := s.GoBack(); snap.CurrentQuestion != 0 {
		t.Fatalf("expected back at question 0 to be a no-op, got %d", snap.CurrentQuestion)
	}
}

func TestResumeWithinExpiry(t *testing.T) {
	h := newHarness()
	h.saveProgress(t, 3, h.clock.Now().Add(-23*time.Hour), 2, 1, 0)

	s := h.session("s-1")
	if !s.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected resumable progress")
	}
	if !s.State().HasSavedProgress {
		t.Fatalf("expected snapshot to advertise saved progress")
	}

	snap := s.Resume(context.Background())
	if snap.Screen != domain.ScreenQuiz || snap.CurrentQuestion != 3 {
		t.Fatalf("expected quiz at question 3, got %s at %d", snap.Screen, snap.CurrentQuestion)
	}
	if *snap.Answers[0] != 2 || *snap.Answers[2] != 0 || snap.Answers[3] != nil {
		t.Fatalf("unexpected restored answers %+v", snap.Answers.Values())
	}
}

func TestResumeExpiredProgress(t *testing.T) {
	h := newHarness()
	h.saveProgress(t, 3, h.clock.Now().Add(-25*time.Hour), 2, 1, 0)

	s := h.session("s-1")
	if s.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected expired progress to be ignored")
	}
	if h.hasProgress() {
		t.Fatalf("expected expired record removed")
	}
	if snap := s.Resume(context.Background()); snap.Screen != domain.ScreenLanding {
		t.Fatalf("expected landing, got %s", snap.Screen)
	}
}

func TestResumeExactlyAtExpiryIsStale(t *testing.T) {
	h := newHarness()
	h.saveProgress(t, 1, h.clock.Now().Add(-24*time.Hour), 2)

	s := h.session("s-1")
	if s.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected a 24h old record to be expired")
	}
}

func TestResumeMalformedProgressStartsOver(t *testing.T) {
	h := newHarness()
	if err := h.store.Set(context.Background(), app.DefaultStorageKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := h.session("s-1")
	snap := s.Resume(context.Background())
	if snap.Screen != domain.ScreenQuiz || snap.CurrentQuestion != 0 || snap.Answers.HasProgress() {
		t.Fatalf("expected a fresh quiz, got %+v", snap)
	}
	if h.hasProgress() {
		t.Fatalf("expected malformed record removed")
	}
}

func TestResumeWithoutProgressKeepsLanding(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	if snap := s.Resume(context.Background()); snap.Screen != domain.ScreenLanding {
		t.Fatalf("expected landing, got %s", snap.Screen)
	}
}

func TestExitThenResume(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	answerAll(t, h, s, 2, 1)

	snap := s.ExitToLanding(context.Background())
	if snap.Screen != domain.ScreenLanding || !snap.HasSavedProgress {
		t.Fatalf("expected landing with saved progress, got %+v", snap)
	}

	h.clock.Advance(time.Hour)
	other := h.session("s-2")
	if !other.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected another session to see the saved progress")
	}
	snap = other.Resume(context.Background())
	if snap.CurrentQuestion != 2 || *snap.Answers[1] != 1 {
		t.Fatalf("expected resume at question 2, got %+v", snap)
	}
}

func TestExitWithoutAnswersSavesNothing(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())

	if snap := s.ExitToLanding(context.Background()); snap.HasSavedProgress {
		t.Fatalf("expected nothing to resume")
	}
	if h.hasProgress() {
		t.Fatalf("expected no record written")
	}
}

func TestExitFromSharedViewKeepsSavedProgress(t *testing.T) {
	h := newHarness()
	h.saveProgress(t, 2, h.clock.Now(), 2, 1)
	s := h.session("s-1")
	if !s.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected saved progress")
	}

	if _, err := s.LoadFromExternalScores(10, 10, 10); err != nil {
		t.Fatalf("load shared scores: %v", err)
	}
	snap := s.ExitToLanding(context.Background())
	if snap.Screen != domain.ScreenLanding || snap.SharedView || snap.Answers.HasProgress() {
		t.Fatalf("expected a clean landing screen, got %+v", snap)
	}

	snap = s.Resume(context.Background())
	if snap.Screen != domain.ScreenQuiz || snap.CurrentQuestion != 2 {
		t.Fatalf("expected resume at question 2, got %+v", snap.SessionState)
	}
	if *snap.Answers[0] != 2 || *snap.Answers[1] != 1 || snap.Answers[14] != nil {
		t.Fatalf("expected the original answers, got %+v", snap.Answers)
	}
}

func TestExitFromResultsSavesNothing(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	answerAll(t, h, s, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0)
	if _, err := s.SkipLead(); err != nil {
		t.Fatalf("skip lead: %v", err)
	}

	snap := s.ExitToLanding(context.Background())
	if snap.Screen != domain.ScreenLanding || snap.HasSavedProgress {
		t.Fatalf("expected landing with nothing to resume, got %+v", snap)
	}
	if h.hasProgress() {
		t.Fatalf("expected no record written for a finished quiz")
	}
	if s.CheckSavedProgress(context.Background()) {
		t.Fatalf("expected finished quiz not to be resumable")
	}
}

func TestExitFromLeadCaptureSavesNothing(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	answerAll(t, h, s, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	if snap := s.ExitToLanding(context.Background()); snap.HasSavedProgress {
		t.Fatalf("expected nothing to resume")
	}
	if h.hasProgress() {
		t.Fatalf("expected no record written from the lead screen")
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	answerAll(t, h, s, 2, 2, 2)

	first := s.Restart(context.Background())
	second := s.Restart(context.Background())
	if first.SessionState.Screen != domain.ScreenLanding || first.Answers.HasProgress() || first.Lead != nil {
		t.Fatalf("expected initial state, got %+v", first)
	}
	if first.SessionState.Screen != second.SessionState.Screen || first.CurrentQuestion != second.CurrentQuestion {
		t.Fatalf("expected restart twice to match once")
	}
	if h.hasProgress() {
		t.Fatalf("expected progress removed")
	}
}

func TestRestartCancelsPendingAdvance(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	_, _ = s.Answer(context.Background(), 1)

	s.Restart(context.Background())
	h.scheduler.Fire()
	if snap := s.State(); snap.Screen != domain.ScreenLanding || snap.CurrentQuestion != 0 {
		t.Fatalf("expected advance discarded, got %+v", snap)
	}
}

func TestStartDiscardsSavedProgress(t *testing.T) {
	h := newHarness()
	h.saveProgress(t, 2, h.clock.Now(), 1, 1)

	s := h.session("s-1")
	snap := s.Start(context.Background())
	if snap.CurrentQuestion != 0 || snap.Answers.HasProgress() {
		t.Fatalf("expected a fresh sheet, got %+v", snap)
	}
	if h.hasProgress() {
		t.Fatalf("expected saved progress cleared")
	}
}

func TestAnswerValidation(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")

	if _, err := s.Answer(context.Background(), 1); !errors.Is(err, domain.ErrUnexpectedScreen) {
		t.Fatalf("expected landing to reject answers, got %v", err)
	}
	s.Start(context.Background())
	if _, err := s.Answer(context.Background(), 3); !errors.Is(err, domain.ErrInvalidScore) {
		t.Fatalf("expected invalid score, got %v", err)
	}
	if _, err := s.Answer(context.Background(), -1); !errors.Is(err, domain.ErrInvalidScore) {
		t.Fatalf("expected invalid score, got %v", err)
	}
}

func TestLoadFromExternalScores(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")

	snap, err := s.LoadFromExternalScores(7, 3, 0)
	if err != nil {
		t.Fatalf("load shared scores: %v", err)
	}
	if snap.Screen != domain.ScreenResults || !snap.SharedView || snap.Lead != nil {
		t.Fatalf("expected shared results, got %+v", snap)
	}
	results := s.Results()
	if results.Scores != (domain.Scores{Sales: 7, Marketing: 3, Ops: 0, Total: 10}) || !results.SharedView {
		t.Fatalf("unexpected shared results %+v", results.Scores)
	}
	if results.Tier.ID != "developing" {
		t.Fatalf("expected developing tier, got %s", results.Tier.ID)
	}

	if _, err := s.LoadFromExternalScores(11, 0, 0); !errors.Is(err, domain.ErrInvalidSectionScore) {
		t.Fatalf("expected out-of-range rejection, got %v", err)
	}
}

func TestCurrentSection(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	s.Start(context.Background())
	if got := s.CurrentSection(); got != domain.SectionSales {
		t.Fatalf("expected sales, got %s", got)
	}
	answerAll(t, h, s, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	if got := s.CurrentSection(); got != domain.SectionOps {
		t.Fatalf("expected ops, got %s", got)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")

	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.Screen != domain.ScreenLanding {
		t.Fatalf("expected initial landing snapshot, got %s", initial.Screen)
	}

	s.Start(context.Background())
	_, _ = s.Answer(context.Background(), 2)
	h.scheduler.Fire()

	var last domain.Snapshot
	for i := 0; i < 3; i++ {
		last = <-ch
	}
	if last.CurrentQuestion != 1 {
		t.Fatalf("expected advance to be broadcast, got %+v", last)
	}
}

func TestCloseEndsSubscriptionsAndAdvances(t *testing.T) {
	h := newHarness()
	s := h.session("s-1")
	ch, cancel := s.Subscribe()
	defer cancel()
	<-ch

	s.Start(context.Background())
	_, _ = s.Answer(context.Background(), 2)
	s.Close()
	h.scheduler.Fire()

	for range ch {
	}
	if got := s.State().CurrentQuestion; got != 0 {
		t.Fatalf("expected no advance after close, got %d", got)
	}
	if _, err := s.Answer(context.Background(), 1); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}
