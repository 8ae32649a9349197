// Package metrics holds the bot's Prometheus collectors and the HTTP server
// that exposes them alongside health and pprof endpoints.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver, so
// components can run without an observability stack (tests, metrics off).
type Metrics struct {
	reg *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	deliveries    *prometheus.CounterVec
	jobRuns       *prometheus.CounterVec
	purged        prometheus.Counter
	updates       *prometheus.CounterVec
}

// New builds a private registry with the process and Go collectors plus the
// bot's own series.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weatherbot_dispatch_cycles_total",
			Help: "Dispatch cycles by outcome (no_forecast, not_rain, duplicate, dispatched, error).",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weatherbot_dispatch_cycle_duration_seconds",
			Help:    "Wall time of a dispatch cycle including fan-out.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weatherbot_alert_deliveries_total",
			Help: "Alert deliveries by result (sent, failed).",
		}, []string{"result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weatherbot_job_runs_total",
			Help: "Scheduled job runs by job and result (ok, error, skipped).",
		}, []string{"job", "result"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weatherbot_subscribers_purged_total",
			Help: "Subscribers permanently removed after the retention window.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weatherbot_updates_total",
			Help: "Inbound chat updates by kind (command, text, other, dropped).",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cycles, m.cycleDuration, m.deliveries, m.jobRuns, m.purged, m.updates,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveCycle(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Delivery(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.deliveries.WithLabelValues("sent").Inc()
		return
	}
	m.deliveries.WithLabelValues("failed").Inc()
}

func (m *Metrics) JobRun(job, result string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

func (m *Metrics) Purged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}
