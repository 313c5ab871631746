// Package metrics provides Prometheus metrics for the icelist service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by icelist.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// List mutations
	mutations         *prometheus.CounterVec
	partialMutations  *prometheus.CounterVec
	mutationLatency   *prometheus.HistogramVec
	validationRejects *prometheus.CounterVec
	evictions         prometheus.Counter

	// Waiting list
	waitingStaged   prometheus.Counter
	waitingConsumed prometheus.Counter

	// Remote store
	storeCalls   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec

	// Idempotency
	duplicateRequests prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "icelist",
		subsystem:        "list",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.mutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutations_total",
		Help:      "List mutations by operation and outcome",
	}, []string{"op", "outcome"})

	m.partialMutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "partial_mutations_total",
		Help:      "Mutations that stopped part way, by operation and failing table",
	}, []string{"op", "table"})

	m.mutationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_latency_milliseconds",
		Help:      "End to end latency of list mutations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.validationRejects = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_rejections_total",
		Help:      "Requests rejected before touching the store",
	}, []string{"op"})

	m.evictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evictions_total",
		Help:      "Levels pushed out of the tracked window by an insertion",
	})

	m.waitingStaged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "waiting",
		Name:      "staged_total",
		Help:      "Submissions appended to the waiting list",
	})

	m.waitingConsumed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "waiting",
		Name:      "consumed_total",
		Help:      "Waiting entries consumed by a placement",
	})

	m.storeCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "calls_total",
		Help:      "Tabular store calls by method, table and outcome",
	}, []string{"method", "table", "outcome"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "call_latency_milliseconds",
		Help:      "Tabular store call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"method"})

	m.duplicateRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "duplicate_requests_total",
		Help:      "Write requests rejected because their idempotency key was seen",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordMutation counts a mutation outcome ("ok", "partial", "invalid", "not_found", "error")
// and observes its latency.
func RecordMutation(op, outcome string, latencyMs float64) {
	globalManager.mutations.WithLabelValues(op, outcome).Inc()
	globalManager.mutationLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordPartialMutation counts a mutation that failed on table after earlier writes landed.
func RecordPartialMutation(op, table string) {
	globalManager.partialMutations.WithLabelValues(op, table).Inc()
}

// RecordValidationRejection counts a request rejected by validation.
func RecordValidationRejection(op string) {
	globalManager.validationRejects.WithLabelValues(op).Inc()
}

// RecordEviction counts a level pushed past the tracked window.
func RecordEviction() {
	globalManager.evictions.Inc()
}

// RecordWaitingStaged counts a staged submission.
func RecordWaitingStaged() {
	globalManager.waitingStaged.Inc()
}

// RecordWaitingConsumed counts a consumed waiting entry.
func RecordWaitingConsumed() {
	globalManager.waitingConsumed.Inc()
}

// RecordStoreCall counts a tabular store call and observes its latency.
func RecordStoreCall(method, table, outcome string, latencyMs float64) {
	globalManager.storeCalls.WithLabelValues(method, table, outcome).Inc()
	globalManager.storeLatency.WithLabelValues(method).Observe(latencyMs)
}

// RecordDuplicateRequest counts a write request dropped by idempotency.
func RecordDuplicateRequest() {
	globalManager.duplicateRequests.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
