// Package metrics provides Prometheus metrics for the garrison service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the garrison service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Workflow Metrics - the conversational state machines
	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	sessionsTimedOut  *prometheus.CounterVec
	sessionsDenied    *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	stepWaitDuration  prometheus.Histogram

	// Ledger Metrics - durable writes
	eventsRecorded prometheus.Counter
	duelsRecorded  prometheus.Counter
	ledgerErrors   prometheus.Counter
	totalMembers   prometheus.Gauge

	// Review & Progression Metrics
	reviewsResolved      *prometheus.CounterVec
	reviewsRejected      prometheus.Counter
	promotionsAnnounced  prometheus.Counter
	promotionEvaluations prometheus.Counter

	// Notification Metrics - best-effort outbound deliveries
	notifyQueueSize     prometheus.Gauge
	notifyQueueCapacity prometheus.Gauge
	notifySent          prometheus.Counter
	notifyErrors        prometheus.Counter
	notifyDropped       prometheus.Counter
	notifyWorkerCount   prometheus.Gauge

	// HTTP Performance Metrics - admin API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "garrison",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Workflow Metrics - session lifecycle per flow
	m.sessionsStarted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_started_total",
			Help:      "Total number of workflow sessions started, by flow",
		},
		[]string{"flow"},
	)

	m.sessionsCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_completed_total",
			Help:      "Total number of workflow sessions that reached a terminal success state, by flow",
		},
		[]string{"flow"},
	)

	m.sessionsTimedOut = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_timed_out_total",
			Help:      "Total number of workflow sessions terminated by a step timeout, by flow",
		},
		[]string{"flow"},
	)

	m.sessionsDenied = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_denied_total",
			Help:      "Total number of workflow sessions refused for missing capability, by flow",
		},
		[]string{"flow"},
	)

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Current number of in-flight workflow sessions",
	})

	m.stepWaitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "step_wait_duration_milliseconds",
		Help:      "Histogram of time spent suspended awaiting a qualifying response",
		Buckets:   m.histogramBuckets,
	})

	// Ledger Metrics - durable writes
	m.eventsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_recorded_total",
		Help:      "Total number of events committed to the ledger",
	})

	m.duelsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duels_recorded_total",
		Help:      "Total number of duel results committed to the ledger",
	})

	m.ledgerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_errors_total",
		Help:      "Total number of failed ledger writes",
	})

	m.totalMembers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_members",
		Help:      "Total number of members known to the ledger",
	})

	// Review & Progression Metrics
	m.reviewsResolved = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reviews_resolved_total",
			Help:      "Total number of assessment reviews resolved, by verdict",
		},
		[]string{"verdict"},
	)

	m.reviewsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reviews_rejected_total",
		Help:      "Total number of verdict signals rejected for missing reviewer capability",
	})

	m.promotionsAnnounced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotions_announced_total",
		Help:      "Total number of promotion-ready notifications emitted (no dedupe; repeats are expected)",
	})

	m.promotionEvaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "promotion_evaluations_total",
		Help:      "Total number of promotion evaluations performed",
	})

	// Notification Metrics - best-effort outbound deliveries
	m.notifyQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_size",
		Help:      "Current size of the outbound notification queue",
	})

	m.notifyQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_queue_capacity",
		Help:      "Configured capacity of the outbound notification queue",
	})

	m.notifySent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_sent_total",
		Help:      "Total number of notifications delivered",
	})

	m.notifyErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_errors_total",
		Help:      "Total number of notification deliveries that failed (swallowed, best-effort)",
	})

	m.notifyDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_dropped_total",
		Help:      "Total number of notifications dropped because the queue was full or closed",
	})

	m.notifyWorkerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notify_worker_count",
		Help:      "Current number of notification delivery workers",
	})

	// HTTP Performance Metrics - admin API
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Workflow Metrics Functions.

// RecordSessionStarted increments the started counter for a flow.
func RecordSessionStarted(flow string) {
	globalManager.sessionsStarted.WithLabelValues(flow).Inc()
}

// RecordSessionCompleted increments the completed counter for a flow.
func RecordSessionCompleted(flow string) {
	globalManager.sessionsCompleted.WithLabelValues(flow).Inc()
}

// RecordSessionTimedOut increments the timed-out counter for a flow.
func RecordSessionTimedOut(flow string) {
	globalManager.sessionsTimedOut.WithLabelValues(flow).Inc()
}

// RecordSessionDenied increments the permission-denied counter for a flow.
func RecordSessionDenied(flow string) {
	globalManager.sessionsDenied.WithLabelValues(flow).Inc()
}

// UpdateActiveSessions sets the number of in-flight sessions.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordStepWaitDuration records how long a session was suspended on one step.
func RecordStepWaitDuration(durationMs float64) {
	globalManager.stepWaitDuration.Observe(durationMs)
}

// Ledger Metrics Functions.

// RecordEventRecorded increments the committed-events counter.
func RecordEventRecorded() {
	globalManager.eventsRecorded.Inc()
}

// RecordDuelRecorded increments the committed-duels counter.
func RecordDuelRecorded() {
	globalManager.duelsRecorded.Inc()
}

// RecordLedgerError increments the failed-write counter.
func RecordLedgerError() {
	globalManager.ledgerErrors.Inc()
}

// UpdateTotalMembers sets the total member gauge.
func UpdateTotalMembers(count int) {
	globalManager.totalMembers.Set(float64(count))
}

// Review & Progression Metrics Functions.

// RecordReviewResolved increments the resolved-reviews counter for a verdict.
func RecordReviewResolved(verdict string) {
	globalManager.reviewsResolved.WithLabelValues(verdict).Inc()
}

// RecordReviewRejected increments the unauthorized-verdict counter.
func RecordReviewRejected() {
	globalManager.reviewsRejected.Inc()
}

// RecordPromotionAnnounced increments the promotion notification counter.
func RecordPromotionAnnounced() {
	globalManager.promotionsAnnounced.Inc()
}

// RecordPromotionEvaluation increments the evaluation counter.
func RecordPromotionEvaluation() {
	globalManager.promotionEvaluations.Inc()
}

// Notification Metrics Functions.

// UpdateNotifyQueueSize sets the current notification queue size.
func UpdateNotifyQueueSize(size int) {
	globalManager.notifyQueueSize.Set(float64(size))
}

// UpdateNotifyQueueCapacity sets the configured notification queue capacity.
func UpdateNotifyQueueCapacity(capacity int) {
	globalManager.notifyQueueCapacity.Set(float64(capacity))
}

// RecordNotifySent increments the delivered-notification counter.
func RecordNotifySent() {
	globalManager.notifySent.Inc()
}

// RecordNotifyError increments the failed-delivery counter.
func RecordNotifyError() {
	globalManager.notifyErrors.Inc()
}

// RecordNotifyDropped increments the dropped-notification counter.
func RecordNotifyDropped() {
	globalManager.notifyDropped.Inc()
}

// UpdateNotifyWorkerCount sets the number of delivery workers.
func UpdateNotifyWorkerCount(count int) {
	globalManager.notifyWorkerCount.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the request counter for an endpoint.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records request duration for an endpoint.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
