// Package metrics provides Prometheus metrics for the beatclash rhythm engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// frameBuckets are tuned for per-frame work measured in milliseconds.
var frameBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25} //nolint:gochecknoglobals // default buckets

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dispatch - what the player actually experiences
	eventsFired       *prometheus.CounterVec
	sustainedRepeats  prometheus.Counter
	windowsPrefetched prometheus.Counter
	windowSize        prometheus.Gauge
	longAttacksActive prometheus.Gauge
	beatmapExhausted  prometheus.Gauge
	dispatchLatency   prometheus.Histogram

	// Beatmap store
	beatmapEventsLoaded  prometheus.Gauge
	beatmapEventsDropped prometheus.Counter
	beatmapLoadErrors    prometheus.Counter

	// Clock and ticker
	clockState         prometheus.Gauge
	clockElapsed       prometheus.Gauge
	tickerSteps        prometheus.Counter
	tickerBeats        prometheus.Counter
	tickerBars         prometheus.Counter
	tickerInvalidTicks prometheus.Counter
	fixedUpdateLatency prometheus.Histogram

	// Fire transport and scoring
	fireQueueSize     prometheus.Gauge
	fireQueueCapacity prometheus.Gauge
	fireQueueEnqueued prometheus.Counter
	fireQueueDropped  prometheus.Counter
	firesApplied      prometheus.Counter
	firesDuplicate    prometheus.Counter
	ownerScore        *prometheus.GaugeVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "beatclash",
		subsystem:        "engine",
		histogramBuckets: frameBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.eventsFired = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_fired_total",
		Help:        "Total number of beatmap events fired, by event kind",
		ConstLabels: m.customLabels,
	}, []string{"kind"})
	m.sustainedRepeats = m.counter("sustained_repeats_total", "Total number of sustained attack repeats fired")
	m.windowsPrefetched = m.counter("windows_prefetched_total", "Total number of event windows loaded from the range index")
	m.windowSize = m.gauge("window_size", "Events waiting in the active window")
	m.longAttacksActive = m.gauge("long_attacks_active", "Sustained attacks currently repeating")
	m.beatmapExhausted = m.gauge("beatmap_exhausted", "1 once the range index has no further events")
	m.dispatchLatency = m.histogram("dispatch_latency_milliseconds", "Time spent in one dispatcher frame update")

	m.beatmapEventsLoaded = m.gauge("beatmap_events_loaded", "Events held by the beatmap store")
	m.beatmapEventsDropped = m.counter("beatmap_events_dropped_total", "Authored events rejected at load (bad position or payload)")
	m.beatmapLoadErrors = m.counter("beatmap_load_errors_total", "Beatmap files that were missing or malformed")

	m.clockState = m.gauge("clock_state", "Playback clock reconciliation state (0 not started, 1 audio delayed, 2 ticker delayed, 3 running)")
	m.clockElapsed = m.gauge("clock_elapsed_seconds", "Playback clock elapsed seconds on the beatmap timeline")
	m.tickerSteps = m.counter("ticker_steps_total", "Steps advanced by the ticker")
	m.tickerBeats = m.counter("ticker_beats_total", "Beat boundaries crossed by the ticker")
	m.tickerBars = m.counter("ticker_bars_total", "Bar boundaries crossed by the ticker")
	m.tickerInvalidTicks = m.counter("ticker_invalid_ticks_total", "Tick calls rejected for a negative step count")
	m.fixedUpdateLatency = m.histogram("fixed_update_latency_milliseconds", "Time spent in one fixed-rate clock and ticker update")

	m.fireQueueSize = m.gauge("fire_queue_size", "Fire notices waiting for the resolver")
	m.fireQueueCapacity = m.gauge("fire_queue_capacity", "Capacity of the fire notice queue")
	m.fireQueueEnqueued = m.counter("fire_queue_enqueued_total", "Fire notices accepted by the queue")
	m.fireQueueDropped = m.counter("fire_queue_dropped_total", "Fire notices dropped because the queue was full or closed")
	m.firesApplied = m.counter("fires_applied_total", "Fire notices applied by the scoring ledger")
	m.firesDuplicate = m.counter("fires_duplicate_total", "Fire notices rejected as duplicates")
	m.ownerScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "owner_score",
		Help:        "Accumulated attack weight per owner",
		ConstLabels: m.customLabels,
	}, []string{"owner"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and error type",
		ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// Dispatch Metrics Functions.

// RecordEventFired increments the fired counter for an event kind.
func RecordEventFired(kind string) {
	if globalManager.enabled {
		globalManager.eventsFired.WithLabelValues(kind).Inc()
	}
}

// RecordSustainedRepeat increments the sustained repeat counter.
func RecordSustainedRepeat() {
	if globalManager.enabled {
		globalManager.sustainedRepeats.Inc()
	}
}

// RecordWindowPrefetched increments the prefetch counter.
func RecordWindowPrefetched() {
	if globalManager.enabled {
		globalManager.windowsPrefetched.Inc()
	}
}

// UpdateWindowSize sets the number of events in the active window.
func UpdateWindowSize(size int) {
	if globalManager.enabled {
		globalManager.windowSize.Set(float64(size))
	}
}

// UpdateLongAttacksActive sets the number of repeating sustained attacks.
func UpdateLongAttacksActive(count int) {
	if globalManager.enabled {
		globalManager.longAttacksActive.Set(float64(count))
	}
}

// UpdateBeatmapExhausted flags the beatmap as exhausted.
func UpdateBeatmapExhausted(exhausted bool) {
	if globalManager.enabled {
		v := 0.0
		if exhausted {
			v = 1
		}
		globalManager.beatmapExhausted.Set(v)
	}
}

// RecordDispatchLatency records one dispatcher frame in milliseconds.
func RecordDispatchLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.dispatchLatency.Observe(latencyMs)
	}
}

// Beatmap Metrics Functions.

// UpdateBeatmapEventsLoaded sets the number of events held by the store.
func UpdateBeatmapEventsLoaded(count int) {
	if globalManager.enabled {
		globalManager.beatmapEventsLoaded.Set(float64(count))
	}
}

// RecordBeatmapEventDropped increments the dropped event counter.
func RecordBeatmapEventDropped() {
	if globalManager.enabled {
		globalManager.beatmapEventsDropped.Inc()
	}
}

// RecordBeatmapLoadError increments the load error counter.
func RecordBeatmapLoadError() {
	if globalManager.enabled {
		globalManager.beatmapLoadErrors.Inc()
	}
}

// Clock and Ticker Metrics Functions.

// UpdateClockState publishes the clock state ordinal.
func UpdateClockState(state int) {
	if globalManager.enabled {
		globalManager.clockState.Set(float64(state))
	}
}

// UpdateClockElapsed publishes the clock's elapsed seconds.
func UpdateClockElapsed(seconds float64) {
	if globalManager.enabled {
		globalManager.clockElapsed.Set(seconds)
	}
}

// RecordTickerSteps adds advanced steps.
func RecordTickerSteps(steps int) {
	if globalManager.enabled && steps > 0 {
		globalManager.tickerSteps.Add(float64(steps))
	}
}

// RecordTickerBeat increments the beat boundary counter.
func RecordTickerBeat() {
	if globalManager.enabled {
		globalManager.tickerBeats.Inc()
	}
}

// RecordTickerBar increments the bar boundary counter.
func RecordTickerBar() {
	if globalManager.enabled {
		globalManager.tickerBars.Inc()
	}
}

// RecordTickerInvalidTick increments the rejected tick counter.
func RecordTickerInvalidTick() {
	if globalManager.enabled {
		globalManager.tickerInvalidTicks.Inc()
	}
}

// RecordFixedUpdateLatency records one fixed-rate update in milliseconds.
func RecordFixedUpdateLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.fixedUpdateLatency.Observe(latencyMs)
	}
}

// Fire Transport Metrics Functions.

// UpdateFireQueueSize sets the number of queued fire notices.
func UpdateFireQueueSize(size int) {
	if globalManager.enabled {
		globalManager.fireQueueSize.Set(float64(size))
	}
}

// UpdateFireQueueCapacity sets the fire queue capacity.
func UpdateFireQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.fireQueueCapacity.Set(float64(capacity))
	}
}

// RecordFireEnqueued increments the accepted notice counter.
func RecordFireEnqueued() {
	if globalManager.enabled {
		globalManager.fireQueueEnqueued.Inc()
	}
}

// RecordFireDropped increments the dropped notice counter.
func RecordFireDropped() {
	if globalManager.enabled {
		globalManager.fireQueueDropped.Inc()
	}
}

// RecordFireApplied increments the applied notice counter.
func RecordFireApplied() {
	if globalManager.enabled {
		globalManager.firesApplied.Inc()
	}
}

// RecordFireDuplicate increments the duplicate notice counter.
func RecordFireDuplicate() {
	if globalManager.enabled {
		globalManager.firesDuplicate.Inc()
	}
}

// UpdateOwnerScore sets the accumulated score of an owner.
func UpdateOwnerScore(owner string, score float64) {
	if globalManager.enabled {
		globalManager.ownerScore.WithLabelValues(owner).Set(score)
	}
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
