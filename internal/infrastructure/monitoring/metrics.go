package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	// Relay metrics
	BytesIn        *prometheus.CounterVec
	BytesOut       *prometheus.CounterVec
	BufferFill     *prometheus.GaugeVec
	BufferCapacity *prometheus.GaugeVec

	// Multiplexer metrics
	PollWakeups    prometheus.Counter
	PollInterrupts prometheus.Counter

	// Lifecycle metrics
	WorkersSpawned prometheus.Counter
	StagesRetired  prometheus.Counter
	Errors         *prometheus.CounterVec
	RunDuration    prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a new metrics collector backed by its own registry, so
// several runs (or tests) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// Relay metrics
		BytesIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipechain_bytes_in_total",
				Help: "Bytes read by the supervisor from a stage",
			},
			[]string{"stage"},
		),
		BytesOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipechain_bytes_out_total",
				Help: "Bytes written by the supervisor downstream of a stage",
			},
			[]string{"stage"},
		),
		BufferFill: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipechain_buffer_fill_bytes",
				Help: "Bytes currently held in a stage's ring buffer",
			},
			[]string{"stage"},
		),
		BufferCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipechain_buffer_capacity_bytes",
				Help: "Capacity of a stage's ring buffer",
			},
			[]string{"stage"},
		),

		// Multiplexer metrics
		PollWakeups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipechain_poll_wakeups_total",
				Help: "Readiness waits that returned at least one ready endpoint",
			},
		),
		PollInterrupts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipechain_poll_interrupts_total",
				Help: "Readiness waits interrupted by a signal and retried",
			},
		),

		// Lifecycle metrics
		WorkersSpawned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipechain_workers_spawned_total",
				Help: "Worker processes created",
			},
		),
		StagesRetired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pipechain_stages_retired_total",
				Help: "Stages fully drained and reaped",
			},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipechain_errors_total",
				Help: "Fatal errors by kind",
			},
			[]string{"kind"},
		),
		RunDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipechain_run_duration_seconds",
				Help: "Wall time of the run",
			},
		),
	}
}

// Registry exposes the underlying registry for export and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRead records bytes pulled from a stage into its buffer.
func (m *Metrics) RecordRead(stage, n int) {
	m.BytesIn.WithLabelValues(stageLabel(stage)).Add(float64(n))
}

// RecordWrite records bytes pushed from a stage's buffer downstream.
func (m *Metrics) RecordWrite(stage, n int) {
	m.BytesOut.WithLabelValues(stageLabel(stage)).Add(float64(n))
}

// SetBufferFill sets the current fill level of a stage's buffer.
func (m *Metrics) SetBufferFill(stage, n int) {
	m.BufferFill.WithLabelValues(stageLabel(stage)).Set(float64(n))
}

// SetBufferCapacity records the fixed capacity of a stage's buffer.
func (m *Metrics) SetBufferCapacity(stage, n int) {
	m.BufferCapacity.WithLabelValues(stageLabel(stage)).Set(float64(n))
}

// IncPollWakeups increments the successful readiness wait counter.
func (m *Metrics) IncPollWakeups() {
	m.PollWakeups.Inc()
}

// IncPollInterrupts increments the interrupted readiness wait counter.
func (m *Metrics) IncPollInterrupts() {
	m.PollInterrupts.Inc()
}

// IncWorkersSpawned increments the spawned worker counter.
func (m *Metrics) IncWorkersSpawned() {
	m.WorkersSpawned.Inc()
}

// IncStagesRetired increments the retired stage counter.
func (m *Metrics) IncStagesRetired() {
	m.StagesRetired.Inc()
}

// RecordError records a fatal error of the given kind.
func (m *Metrics) RecordError(kind string) {
	m.Errors.WithLabelValues(kind).Inc()
}

// ObserveRunDuration sets the run duration gauge to the time since creation.
func (m *Metrics) ObserveRunDuration() {
	m.RunDuration.Set(time.Since(m.startTime).Seconds())
}

func stageLabel(stage int) string {
	return strconv.Itoa(stage)
}
