// Package metrics provides Prometheus metrics for the scorecard service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	sessionsOpened  prometheus.Counter
	sessionsActive  prometheus.Gauge
	quizzesStarted  prometheus.Counter
	answers         *prometheus.CounterVec
	completions     prometheus.Counter
	sharedViews     prometheus.Counter
	leads           *prometheus.CounterVec
	storageErrors   *prometheus.CounterVec
	webhookSent     *prometheus.CounterVec
	webhookFailures *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRegistry sets the registry collectors are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a manager on its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scorecard",
		subsystem:        "quiz",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsOpened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_opened_total",
		Help: "Total number of quiz sessions opened",
	})
	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sessions_active",
		Help: "Number of quiz sessions currently open",
	})
	m.quizzesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "quizzes_started_total",
		Help: "Total number of quizzes started or resumed",
	})
	m.answers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "answers_total",
		Help: "Total number of answers by section and score",
	}, []string{"section", "score"})
	m.completions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "completions_total",
		Help: "Total number of quizzes answered through the last question",
	})
	m.sharedViews = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "shared_views_total",
		Help: "Total number of results views rebuilt from shared links",
	})
	m.leads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "leads_total",
		Help: "Total number of lead submissions by request type",
	}, []string{"request_type"})
	m.storageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "progress_storage_errors_total",
		Help: "Progress store failures by operation",
	}, []string{"operation"})
	m.webhookSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "webhook_deliveries_total",
		Help: "Successful webhook deliveries by request type",
	}, []string{"request_type"})
	m.webhookFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "webhook_failures_total",
		Help: "Failed webhook deliveries by request type",
	}, []string{"request_type"})
	m.webhookLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "webhook_latency_seconds",
		Help:    "Webhook delivery latency in seconds",
		Buckets: m.histogramBuckets,
	}, []string{"request_type"})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) SessionOpened() {
	m.sessionsOpened.Inc()
	m.sessionsActive.Inc()
}

func (m *Manager) SessionClosed() { m.sessionsActive.Dec() }
func (m *Manager) QuizStarted() { m.quizzesStarted.Inc() }
func (m *Manager) AnswerRecorded(section, score string) { m.answers.WithLabelValues(section, score).Inc() }
func (m *Manager) QuizCompleted() { m.completions.Inc() }
func (m *Manager) SharedViewLoaded() { m.sharedViews.Inc() }
func (m *Manager) LeadSubmitted(requestType string) { m.leads.WithLabelValues(requestType).Inc() }
func (m *Manager) StorageError(operation string) { m.storageErrors.WithLabelValues(operation).Inc() }
func (m *Manager) WebhookDelivered(requestType string) { m.webhookSent.WithLabelValues(requestType).Inc() }
func (m *Manager) WebhookFailed(requestType string) { m.webhookFailures.WithLabelValues(requestType).Inc() }

func (m *Manager) WebhookLatency(requestType string, seconds float64) {
	m.webhookLatency.WithLabelValues(requestType).Observe(seconds)
}

func (m *Manager) HTTPRequest(endpoint, method, statusCode string, seconds float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

var (
	globalOnce    sync.Once
	globalManager *Manager
)

// Default returns the process-wide manager.
func Default() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
	})
	return globalManager
}
