package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Matching
	scoresComputed prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	rankingLatency prometheus.Histogram
	rankingResults prometheus.Histogram

	// Lifecycle
	transitions      *prometheus.CounterVec
	conflicts        prometheus.Counter
	matchesExpired   prometheus.Counter
	sweepRuns        prometheus.Counter
	sweepLatency     prometheus.Histogram
	lifecycleLatency *prometheus.HistogramVec

	// Notifications
	notificationsDispatched *prometheus.CounterVec
	notificationsFailed     *prometheus.CounterVec
	notificationsDropped    prometheus.Counter
	websocketClients        prometheus.Gauge

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillswap",
		subsystem:        "matching",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scoresComputed = m.counter("scores_computed_total", "Total number of compatibility scores computed")
	m.cacheHits = m.counter("score_cache_hits_total", "Score memo cache hits")
	m.cacheMisses = m.counter("score_cache_misses_total", "Score memo cache misses")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Time to rank a candidate pool in milliseconds", m.histogramBuckets)
	m.rankingResults = m.histogram("ranking_results", "Number of suggestions returned per ranking",
		[]float64{0, 1, 5, 10, 20, 30, 40, 50})

	m.transitions = m.counterVec("lifecycle_transitions_total", "Match lifecycle operations by operation and outcome", "operation", "outcome")
	m.conflicts = m.counter("lifecycle_conflicts_total", "Compare-and-set conflicts lost to a concurrent transition")
	m.matchesExpired = m.counter("matches_expired_total", "Pending matches transitioned to expired")
	m.sweepRuns = m.counter("sweep_runs_total", "Bulk expiry sweeps executed")
	m.sweepLatency = m.histogram("sweep_latency_milliseconds", "Bulk expiry sweep duration in milliseconds", m.histogramBuckets)
	m.lifecycleLatency = m.histogramVec("lifecycle_latency_milliseconds", "Lifecycle operation latency in milliseconds", "operation")

	m.notificationsDispatched = m.counterVec("notifications_dispatched_total", "Notifications delivered by sink", "sink")
	m.notificationsFailed = m.counterVec("notifications_failed_total", "Notification deliveries that failed by sink", "sink")
	m.notificationsDropped = m.counter("notifications_dropped_total", "Notifications dropped because the queue was full")
	m.websocketClients = m.gauge("websocket_clients", "Connected websocket clients")

	m.queueSize = m.gauge("queue_size", "Current number of queued notification events")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum notification queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of events enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of events dequeued")
	m.workerCount = m.gauge("worker_count", "Current number of dispatcher workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Per-event dispatch latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordScoreComputed increments the computed scores counter.
func RecordScoreComputed() {
	globalManager.scoresComputed.Inc()
}

// RecordCacheHit increments the memo hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the memo miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordRanking records one ranking run.
func RecordRanking(latencyMs float64, results int) {
	globalManager.rankingLatency.Observe(latencyMs)
	globalManager.rankingResults.Observe(float64(results))
}

// RecordTransition counts a lifecycle operation outcome ("ok" or an error kind).
func RecordTransition(operation, outcome string) {
	globalManager.transitions.WithLabelValues(operation, outcome).Inc()
}

// RecordLifecycleLatency records the latency of a lifecycle operation.
func RecordLifecycleLatency(operation string, latencyMs float64) {
	globalManager.lifecycleLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordConflict increments the lost compare-and-set counter.
func RecordConflict() {
	globalManager.conflicts.Inc()
}

// RecordExpired adds n expired matches.
func RecordExpired(n int) {
	globalManager.matchesExpired.Add(float64(n))
}

// RecordSweep records one bulk sweep run.
func RecordSweep(latencyMs float64) {
	globalManager.sweepRuns.Inc()
	globalManager.sweepLatency.Observe(latencyMs)
}

// RecordNotificationDispatched increments deliveries for sink.
func RecordNotificationDispatched(sink string) {
	globalManager.notificationsDispatched.WithLabelValues(sink).Inc()
}

// RecordNotificationFailed increments failed deliveries for sink.
func RecordNotificationFailed(sink string) {
	globalManager.notificationsFailed.WithLabelValues(sink).Inc()
}

// RecordNotificationDropped increments the dropped notifications counter.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// UpdateWebsocketClients sets the connected websocket client count.
func UpdateWebsocketClients(count int) {
	globalManager.websocketClients.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-event dispatch latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
