/*
Package observability provides the Prometheus collectors for the Capsid
engine: task counts, stage durations, log volume and the active-task gauge.

The engine and pipeline record through the Metrics methods so no other
package touches the Prometheus API directly; the HTTP adapter exposes the
registry on /metrics.
*/
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/capsid/pkg/domain"
)

// Metrics holds the engine's collectors, registered on one Registerer.
type Metrics struct {
	tasksStarted  *prometheus.CounterVec
	tasksFinished *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	logBytes      prometheus.Counter
	activeTasks   prometheus.Gauge
}

// New creates and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer to expose them on the default registry, or a
// private prometheus.NewRegistry() to keep them isolated (tests, embedded
// use).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasksStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsid_tasks_started_total",
				Help: "Total number of runs and actions started",
			},
			[]string{"kind"},
		),
		tasksFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capsid_tasks_finished_total",
				Help: "Total number of runs and actions finished, by final status",
			},
			[]string{"kind", "status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "capsid_stage_duration_seconds",
				Help:    "Wall-clock duration of pipeline stages",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
			},
			[]string{"stage"},
		),
		logBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "capsid_log_bytes_total",
				Help: "Total bytes appended to the run log",
			},
		),
		activeTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "capsid_active_tasks",
				Help: "Number of runs or actions currently executing (0 or 1)",
			},
		),
	}
	reg.MustRegister(m.tasksStarted, m.tasksFinished, m.stageDuration, m.logBytes, m.activeTasks)
	return m
}

// TaskStarted records the start of a run or action.
func (m *Metrics) TaskStarted(kind domain.TaskKind) {
	m.tasksStarted.WithLabelValues(string(kind)).Inc()
	m.activeTasks.Inc()
}

// TaskFinished records a terminal status for a run or action.
func (m *Metrics) TaskFinished(kind domain.TaskKind, status domain.RunStatus) {
	m.tasksFinished.WithLabelValues(string(kind), string(status)).Inc()
	m.activeTasks.Dec()
}

// ObserveStage records one stage execution's wall-clock duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddLogBytes records log volume appended by the active sink.
func (m *Metrics) AddLogBytes(n int) {
	m.logBytes.Add(float64(n))
}
