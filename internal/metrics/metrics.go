// Package metrics registers the process-wide Prometheus instruments
// named in SPEC_FULL.md §2: Governor admission outcomes, Executor
// durations, Router failovers, and Orchestrator verdicts by outcome.
// Ambient infrastructure only — it observes core, it never influences
// a verdict.
//
// Grounded on the teacher's MonitoringManager (server/monitoring.go),
// whose periodic-stat-dump shape is replaced here with the pack's
// idiomatic approach (prometheus/client_golang counters/histograms
// scraped on demand) rather than a ticker-driven console logger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument core components report to.
type Metrics struct {
	GovernorAdmissions   *prometheus.CounterVec
	ExecutorDuration     prometheus.Histogram
	RouterFailovers      prometheus.Counter
	OrchestratorVerdicts *prometheus.CounterVec
}

// New registers and returns a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GovernorAdmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querybench",
			Name:      "governor_admissions_total",
			Help:      "Count of Governor.Admit calls by outcome (admitted|denied).",
		}, []string{"outcome"}),
		ExecutorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "querybench",
			Name:      "executor_duration_ms",
			Help:      "Executor.Execute wall-clock duration in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		RouterFailovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "querybench",
			Name:      "router_failovers_total",
			Help:      "Count of Router.Acquire calls that fell back to primary after a replica failure.",
		}),
		OrchestratorVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "querybench",
			Name:      "orchestrator_verdicts_total",
			Help:      "Count of Orchestrator.Evaluate calls by verdict status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.GovernorAdmissions, m.ExecutorDuration, m.RouterFailovers, m.OrchestratorVerdicts)
	return m
}

// ObserveVerdict records an Orchestrator outcome by its status.
func (m *Metrics) ObserveVerdict(status string) {
	m.OrchestratorVerdicts.WithLabelValues(status).Inc()
}

// ObserveAdmission records a Governor.Admit outcome.
func (m *Metrics) ObserveAdmission(admitted bool) {
	outcome := "denied"
	if admitted {
		outcome = "admitted"
	}
	m.GovernorAdmissions.WithLabelValues(outcome).Inc()
}

// ObserveExecutorDuration records one Executor.Execute wall-clock duration.
func (m *Metrics) ObserveExecutorDuration(durationMs int64) {
	m.ExecutorDuration.Observe(float64(durationMs))
}

// ObserveRouterFailover records a Router.Acquire call that had to fall
// back to primary after its picked replica's connect attempt failed.
func (m *Metrics) ObserveRouterFailover() {
	m.RouterFailovers.Inc()
}
