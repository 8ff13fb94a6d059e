package app

import (
	"context"
	"sync"
	"time"

	"ai-ops-scorecard/internal/domain"
	"ai-ops-scorecard/internal/logger"
	"ai-ops-scorecard/internal/metrics"
	"ai-ops-scorecard/internal/scoring"
)

// Notices shown to the respondent after a request is accepted.
const (
	LeadSentNotice         = "Results sent! Check your inbox within 5 minutes."
	ConsultationSentNotice = "Thanks! We'll be in touch soon."
	GuideReceivedNotice    = "Request received! Check your inbox in 10 minutes."
)

// DefaultDeliveryTimeout bounds a single webhook delivery.
const DefaultDeliveryTimeout = 10 * time.Second

// SessionRepository abstracts where live sessions are kept (in-memory, Redis-marked, etc).
type SessionRepository interface {
	// GetOrCreate returns the existing session or stores the one built by create.
	// The bool reports whether create was used.
	GetOrCreate(sessionID string, create func() *Session) (*Session, bool)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads the reference catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// Notifier delivers a payload to the external system configured for requestType.
type Notifier interface {
	Deliver(ctx context.Context, requestType domain.RequestType, payload any) error
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

func WithCatalogID(id string) ServiceOption {
	return func(s *QuizService) {
		if id != "" {
			s.catalogID = id
		}
	}
}

// WithStorageKeyPrefix sets the prefix of per-client progress keys.
func WithStorageKeyPrefix(prefix string) ServiceOption {
	return func(s *QuizService) {
		if prefix != "" {
			s.storagePrefix = prefix
		}
	}
}

// WithSessionOptions are applied to every session the service opens.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

func WithDeliveryTimeout(d time.Duration) ServiceOption {
	return func(s *QuizService) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

func WithServiceLogger(log logger.Logger) ServiceOption {
	return func(s *QuizService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithServiceMetrics(m *metrics.Manager) ServiceOption {
	return func(s *QuizService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) {
		if now != nil {
			s.now = now
		}
	}
}

// QuizService contains the scorecard use cases that span a session.
type QuizService struct {
	sessions        SessionRepository
	catalogs        CatalogRepository
	progress        ProgressStore
	notifier        Notifier
	catalogID       string
	storagePrefix   string
	sessionOpts     []SessionOption
	deliveryTimeout time.Duration
	log             logger.Logger
	metrics         *metrics.Manager
	now             func() time.Time

	inflight sync.WaitGroup
}

// NewQuizService wires the service. notifier may be nil, in which case nothing is delivered.
func NewQuizService(sessions SessionRepository, catalogs CatalogRepository, progress ProgressStore, notifier Notifier, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:        sessions,
		catalogs:        catalogs,
		progress:        progress,
		notifier:        notifier,
		catalogID:       domain.DefaultCatalogID,
		storagePrefix:   DefaultStorageKey,
		deliveryTimeout: DefaultDeliveryTimeout,
		log:             logger.Nop(),
		metrics:         metrics.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProgressKey is the storage key of a client's saved progress.
func ProgressKey(prefix, clientID string) string {
	if clientID == "" {
		return prefix
	}
	return prefix + ":" + clientID
}

// Catalog returns the configured catalog.
func (s *QuizService) Catalog(ctx context.Context) (domain.Catalog, error) {
	return s.catalogs.GetCatalog(ctx, s.catalogID)
}

// Open returns the session for sessionID, creating it bound to the client's progress record.
func (s *QuizService) Open(ctx context.Context, sessionID, clientID string) (*Session, error) {
	// Preload the catalog; sessions cannot be scored without it.
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	session, created := s.sessions.GetOrCreate(sessionID, func() *Session {
		opts := append([]SessionOption{
			WithStorageKey(ProgressKey(s.storagePrefix, clientID)),
			WithLogger(s.log),
			WithMetrics(s.metrics),
		}, s.sessionOpts...)
		return NewSession(sessionID, catalog, s.progress, opts...)
	})
	if created {
		session.CheckSavedProgress(ctx)
		s.metrics.SessionOpened()
		s.log.Debug(ctx, "session opened", logger.String("session_id", sessionID))
	}
	return session, nil
}

// Session looks up an open session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close tears the session down and forgets it.
func (s *QuizService) Close(ctx context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
	s.metrics.SessionClosed()
	s.log.Debug(ctx, "session closed", logger.String("session_id", sessionID))
}

// SubmitLead records the contact, moves the session to results and sends the assessment.
// Delivery is fire-and-forget; its outcome never changes the session.
func (s *QuizService) SubmitLead(ctx context.Context, sessionID string, lead domain.LeadData) (domain.Snapshot, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap, err := session.SubmitLead(lead)
	if err != nil {
		return domain.Snapshot{}, err
	}

	payload := BuildAssessmentPayload(session.Catalog(), domain.RequestFreeAssessment, domain.LeadContact{
		Name:  lead.Name,
		Email: lead.Email,
	}, snap.Answers, s.now())
	s.dispatch(ctx, domain.RequestFreeAssessment, payload)
	return snap, nil
}

// RequestConsultation sends the respondent's results together with a consultation request.
func (s *QuizService) RequestConsultation(ctx context.Context, sessionID string, req domain.ConsultationRequest) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	snap := session.State()
	if snap.Screen != domain.ScreenResults {
		return domain.ErrUnexpectedScreen
	}
	// Fields left blank fall back to the contact captured on the lead screen.
	if snap.Lead != nil {
		if req.Name == "" {
			req.Name = snap.Lead.Name
		}
		if req.Email == "" {
			req.Email = snap.Lead.Email
		}
	}

	payload := BuildAssessmentPayload(session.Catalog(), domain.RequestConsultation, domain.LeadContact{
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Challenge: req.Challenge,
	}, snap.Answers, s.now())
	s.dispatch(ctx, domain.RequestConsultation, payload)
	return nil
}

// RequestImplementationGuide sends an implementation-guide request. It needs no session.
func (s *QuizService) RequestImplementationGuide(ctx context.Context, req domain.GuideRequest) {
	s.dispatch(ctx, domain.RequestImplementationGuide, BuildGuidePayload(req, s.now()))
}

// SharedResults rebuilds a results view from shared section totals.
func (s *QuizService) SharedResults(ctx context.Context, sales, marketing, ops int) (domain.Results, error) {
	answers, err := scoring.ReconstructAnswers(sales, marketing, ops)
	if err != nil {
		return domain.Results{}, err
	}
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return domain.Results{}, err
	}
	results := scoring.Results(catalog, answers)
	results.SharedView = true
	s.metrics.SharedViewLoaded()
	return results, nil
}

// Drain waits for in-flight deliveries.
func (s *QuizService) Drain() {
	s.inflight.Wait()
}

func (s *QuizService) dispatch(ctx context.Context, requestType domain.RequestType, payload any) {
	s.metrics.LeadSubmitted(string(requestType))
	if s.notifier == nil {
		s.log.Debug(ctx, "no notifier configured, dropping payload", logger.String("request_type", string(requestType)))
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		deliverCtx, cancel := context.WithTimeout(context.Background(), s.deliveryTimeout)
		defer cancel()

		started := time.Now()
		err := s.notifier.Deliver(deliverCtx, requestType, payload)
		s.metrics.WebhookLatency(string(requestType), time.Since(started).Seconds())
		if err != nil {
			s.metrics.WebhookFailed(string(requestType))
			s.log.Warn(deliverCtx, "webhook delivery failed",
				logger.String("request_type", string(requestType)),
				logger.Error(err))
			return
		}
		s.metrics.WebhookDelivered(string(requestType))
	}()
}
