// Package metrics provides Prometheus metrics for the difficulty engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric of the service.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  prometheus.Registerer

	// Engine metrics - what the incremental pipeline is doing.
	objectsFolded     prometheus.Counter
	sectionsClosed    prometheus.Counter
	reductions        prometheus.Counter
	reductionLatency  prometheus.Histogram
	snapshotsServed   prometheus.Counter
	coalescedAdvances prometheus.Counter
	calculatorsActive prometheus.Gauge

	// Submission metrics.
	batchesSubmitted prometheus.Counter
	batchesDuplicate prometheus.Counter

	// Queue metrics.
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueErrors      prometheus.Counter

	// Worker metrics.
	workerActive  prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking by component.
	errorsByComponent *prometheus.CounterVec

	// System metrics, refreshed by the main loop.
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
}

// Global manager and registry. A custom registry keeps the default Go
// collector noise out of the scrape output.
var (
	customRegistry = prometheus.NewRegistry()            //nolint:gochecknoglobals // singleton registry
	globalManager  *Manager                              //nolint:gochecknoglobals // singleton manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "akatsuki",
		subsystem: "diffcalc",
		buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)
	opt := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	gaugeOpt := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	histOpt := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.buckets}
	}

	m.objectsFolded = factory.NewCounter(opt("objects_folded_total", "Hit-objects folded into strain state"))
	m.sectionsClosed = factory.NewCounter(opt("sections_closed_total", "Strain sections closed"))
	m.reductions = factory.NewCounter(opt("reductions_total", "Difficulty reductions executed"))
	m.reductionLatency = factory.NewHistogram(histOpt("reduction_duration_ms", "Difficulty reduction latency in ms"))
	m.snapshotsServed = factory.NewCounter(opt("snapshots_served_total", "Difficulty snapshots served to callers"))
	m.coalescedAdvances = factory.NewCounter(opt("coalesced_advances_total", "AdvanceTo calls satisfied by already-completed work"))
	m.calculatorsActive = factory.NewGauge(gaugeOpt("calculators_active", "Live gradual calculators"))

	m.batchesSubmitted = factory.NewCounter(opt("batches_submitted_total", "Object batches accepted for processing"))
	m.batchesDuplicate = factory.NewCounter(opt("batches_duplicate_total", "Object batches rejected as duplicates"))

	m.queueSize = factory.NewGauge(gaugeOpt("queue_size", "Batches currently queued"))
	m.queueCapacity = factory.NewGauge(gaugeOpt("queue_capacity", "Configured queue capacity"))
	m.queueUtilization = factory.NewGauge(gaugeOpt("queue_utilization", "Queue fill ratio 0..1"))
	m.queueEnqueues = factory.NewCounter(opt("queue_enqueues_total", "Successful enqueues"))
	m.queueDequeues = factory.NewCounter(opt("queue_dequeues_total", "Successful dequeues"))
	m.queueErrors = factory.NewCounter(opt("queue_errors_total", "Failed enqueue attempts"))

	m.workerActive = factory.NewGauge(gaugeOpt("worker_active", "Workers currently processing a batch"))
	m.workerLatency = factory.NewHistogram(histOpt("worker_duration_ms", "Batch processing latency in ms"))
	m.workerErrors = factory.NewCounter(opt("worker_errors_total", "Batch processing failures"))

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_ms", Help: "HTTP request latency in ms", Buckets: m.buckets,
	}, []string{"endpoint"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total", Help: "Errors by component and kind",
	}, []string{"component", "kind"})

	m.systemMemory = factory.NewGauge(gaugeOpt("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutines = factory.NewGauge(gaugeOpt("system_goroutines", "Live goroutines"))

	return m
}

// GetRegistry returns the registry backing the global manager, for
// serving with promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

func RecordObjectsFolded(n int)         { globalManager.objectsFolded.Add(float64(n)) }
func RecordSectionsClosed(n int)        { globalManager.sectionsClosed.Add(float64(n)) }
func RecordReduction(latencyMS float64) {
	globalManager.reductions.Inc()
	globalManager.reductionLatency.Observe(latencyMS)
}
func RecordSnapshotServed()    { globalManager.snapshotsServed.Inc() }
func RecordCoalescedAdvance()  { globalManager.coalescedAdvances.Inc() }
func UpdateCalculators(n int)  { globalManager.calculatorsActive.Set(float64(n)) }
func RecordBatchSubmitted()    { globalManager.batchesSubmitted.Inc() }
func RecordBatchDuplicate()    { globalManager.batchesDuplicate.Inc() }

func UpdateQueueSize(n int)          { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)      { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()            { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()            { globalManager.queueDequeues.Inc() }
func RecordQueueError()              { globalManager.queueErrors.Inc() }

func UpdateWorkerActive(n int)            { globalManager.workerActive.Set(float64(n)) }
func RecordWorkerLatency(latencyMS float64) { globalManager.workerLatency.Observe(latencyMS) }
func RecordWorkerError()                  { globalManager.workerErrors.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}
func RecordHTTPRequestDuration(endpoint string, latencyMS float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint).Observe(latencyMS)
}

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

func UpdateSystemMemory(bytes uint64) { globalManager.systemMemory.Set(float64(bytes)) }
func UpdateSystemGoroutines(n int)    { globalManager.systemGoroutines.Set(float64(n)) }
