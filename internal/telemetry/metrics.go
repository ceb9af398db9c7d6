package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// Metrics implements agent.Metrics backed by a dedicated Prometheus
// registry, so tests can create instances freely without collector name
// collisions.
type Metrics struct {
	registry *prometheus.Registry

	tasksFinished    *prometheus.CounterVec
	retriesScheduled prometheus.Counter
	skillExecutions  *prometheus.CounterVec
	skillDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkpress_tasks_finished_total",
			Help: "Content tasks reaching a terminal outcome, by status.",
		}, []string{"status"}),
		retriesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkpress_task_retries_scheduled_total",
			Help: "Automatic task retries scheduled.",
		}),
		skillExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkpress_skill_executions_total",
			Help: "Skill executions, by skill and outcome.",
		}, []string{"skill", "outcome"}),
		skillDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkpress_skill_duration_seconds",
			Help:    "Skill execution duration.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"skill"}),
	}

	registry.MustRegister(m.tasksFinished, m.retriesScheduled, m.skillExecutions, m.skillDuration)
	return m
}

// TaskFinished records a task reaching a terminal outcome.
func (m *Metrics) TaskFinished(status domain.TaskStatus) {
	m.tasksFinished.WithLabelValues(string(status)).Inc()
}

// TaskRetryScheduled records an automatic retry being scheduled.
func (m *Metrics) TaskRetryScheduled() {
	m.retriesScheduled.Inc()
}

// SkillExecuted records one skill execution.
func (m *Metrics) SkillExecuted(skill string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.skillExecutions.WithLabelValues(skill, outcome).Inc()
	m.skillDuration.WithLabelValues(skill).Observe(duration.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
