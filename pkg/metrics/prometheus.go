// Package metrics provides Prometheus metrics for the bakery API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unit-of-work outcome label values.
const (
	OutcomeCommit   = "commit"
	OutcomeRollback = "rollback"
)

// Entity label values.
const (
	EntityBakery    = "bakery"
	EntityBakedGood = "baked_good"
)

// Manager manages all Prometheus metrics for the bakery service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Business metrics
	bakedGoodsCreated prometheus.Counter
	bakedGoodsDeleted prometheus.Counter
	bakeriesUpdated   prometheus.Counter
	notFound          *prometheus.CounterVec
	entityCount       *prometheus.GaugeVec

	// Unit of work
	txTotal    *prometheus.CounterVec
	txDuration *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          prometheus.Counter

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bakery",
		subsystem:        "api",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.bakedGoodsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "baked_goods_created_total",
		Help:        "Total number of baked goods created",
		ConstLabels: m.constLabels,
	})

	m.bakedGoodsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "baked_goods_deleted_total",
		Help:        "Total number of baked goods deleted",
		ConstLabels: m.constLabels,
	})

	m.bakeriesUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "bakeries_updated_total",
		Help:        "Total number of bakery patches committed",
		ConstLabels: m.constLabels,
	})

	m.notFound = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "lookups_not_found_total",
			Help:        "Lookups by id that found no row, by entity",
			ConstLabels: m.constLabels,
		},
		[]string{"entity"},
	)

	m.entityCount = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "entities",
			Help:        "Current number of stored rows, by entity",
			ConstLabels: m.constLabels,
		},
		[]string{"entity"},
	)

	m.txTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "unit_of_work_total",
			Help:        "Units of work by operation and outcome (commit or rollback)",
			ConstLabels: m.constLabels,
		},
		[]string{"operation", "outcome"},
	)

	m.txDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "unit_of_work_duration_milliseconds",
			Help:        "Unit of work duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"operation", "outcome"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_panics_total",
		Help:        "Handler panics recovered by middleware",
		ConstLabels: m.constLabels,
	})

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Errors by type and severity",
			ConstLabels: m.constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Errors by endpoint, method and type",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "error_latency_milliseconds",
			Help:        "Latency of failed requests in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordBakedGoodCreated increments the created baked goods counter.
func RecordBakedGoodCreated() {
	globalManager.bakedGoodsCreated.Inc()
}

// RecordBakedGoodDeleted increments the deleted baked goods counter.
func RecordBakedGoodDeleted() {
	globalManager.bakedGoodsDeleted.Inc()
}

// RecordBakeryUpdated increments the bakery patch counter.
func RecordBakeryUpdated() {
	globalManager.bakeriesUpdated.Inc()
}

// RecordNotFound counts a lookup miss for entity.
func RecordNotFound(entity string) {
	globalManager.notFound.WithLabelValues(entity).Inc()
}

// UpdateEntityCount sets the stored row count for entity.
func UpdateEntityCount(entity string, count int64) {
	globalManager.entityCount.WithLabelValues(entity).Set(float64(count))
}

// RecordUnitOfWork records the outcome and duration of one transaction.
func RecordUnitOfWork(operation, outcome string, durationMs float64) {
	globalManager.txTotal.WithLabelValues(operation, outcome).Inc()
	globalManager.txDuration.WithLabelValues(operation, outcome).Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPPanic increments the recovered panic counter.
func RecordHTTPPanic() {
	globalManager.httpPanics.Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
