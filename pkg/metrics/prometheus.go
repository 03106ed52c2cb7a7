// Package metrics provides Prometheus metrics for the registrar service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Domain
	conflictChecks    *prometheus.CounterVec
	conflictsFound    *prometheus.CounterVec
	summariesComputed prometheus.Counter
	termsSummarized   prometheus.Counter
	unknownGrades     prometheus.Counter

	// Parse cache
	parseCacheHits      prometheus.Counter
	parseCacheMisses    prometheus.Counter
	parseCacheEvictions prometheus.Counter
	parseCacheSize      prometheus.Gauge

	// Worker pool
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge
	jobsProcessed     prometheus.Counter
	jobLatency        prometheus.Histogram
	workerErrors      prometheus.Counter

	// Upstream backend
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "registrar",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: buckets, ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.conflictChecks = auto.NewCounterVec(
		m.counter("conflict_checks_total", "Schedule conflict checks run, by scope"),
		[]string{"scope"},
	)
	m.conflictsFound = auto.NewCounterVec(
		m.counter("conflicts_found_total", "Conflicting item pairs reported, by scope"),
		[]string{"scope"},
	)
	m.summariesComputed = auto.NewCounter(m.counter("grade_summaries_total", "Transcripts summarized"))
	m.termsSummarized = auto.NewCounter(m.counter("terms_summarized_total", "Term summaries produced"))
	m.unknownGrades = auto.NewCounter(m.counter("unknown_grades_total", "Records whose letter grade is not in the grade table"))

	m.parseCacheHits = auto.NewCounter(m.counter("parse_cache_hits_total", "Schedule parse cache hits"))
	m.parseCacheMisses = auto.NewCounter(m.counter("parse_cache_misses_total", "Schedule parse cache misses"))
	m.parseCacheEvictions = auto.NewCounter(m.counter("parse_cache_evictions_total", "Schedule parse cache evictions"))
	m.parseCacheSize = auto.NewGauge(m.gauge("parse_cache_size", "Schedule texts currently cached"))

	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Configured batch workers"))
	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Batch workers currently running a job"))
	m.jobsProcessed = auto.NewCounter(m.counter("worker_jobs_processed_total", "Batch jobs completed"))
	m.jobLatency = auto.NewHistogram(m.histogram("worker_job_latency_milliseconds", "Batch job latency in milliseconds", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counter("worker_errors_total", "Batch jobs that failed"))

	m.upstreamRequests = auto.NewCounterVec(
		m.counter("upstream_requests_total", "Requests sent to the upstream backend"),
		[]string{"endpoint", "status_code"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogram("upstream_latency_milliseconds", "Upstream request latency in milliseconds", m.histogramBuckets),
		[]string{"endpoint"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counter("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counter("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counter("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogram("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Configure rebuilds the global collectors with opts on a fresh registry.
// It must run at startup, before metrics are recorded or served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// Domain metrics.

// RecordConflictCheck counts one check and the pairs it found. scope is
// "internal" or "committed".
func RecordConflictCheck(scope string, found int) {
	globalManager.conflictChecks.WithLabelValues(scope).Inc()
	globalManager.conflictsFound.WithLabelValues(scope).Add(float64(found))
}

// RecordSummary counts one summarized transcript and its terms.
func RecordSummary(terms int) {
	globalManager.summariesComputed.Inc()
	globalManager.termsSummarized.Add(float64(terms))
}

// RecordUnknownGrades counts records with an unrecognized letter grade.
func RecordUnknownGrades(n int) {
	globalManager.unknownGrades.Add(float64(n))
}

// Parse cache metrics.

func RecordParseCacheHit()       { globalManager.parseCacheHits.Inc() }
func RecordParseCacheMiss()      { globalManager.parseCacheMisses.Inc() }
func RecordParseCacheEviction()  { globalManager.parseCacheEvictions.Inc() }
func UpdateParseCacheSize(n int) { globalManager.parseCacheSize.Set(float64(n)) }

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordJobProcessed records one finished batch job.
func RecordJobProcessed(latencyMs float64) {
	globalManager.jobsProcessed.Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Upstream metrics.

// RecordUpstreamRequest records one call to the upstream backend.
func RecordUpstreamRequest(endpoint, statusCode string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

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
