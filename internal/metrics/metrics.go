package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "placebench"

var (
	SolverInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_invocations_total",
			Help:      "Total number of solver gateway invocations, labeled by algorithm and outcome.",
		},
		[]string{"algorithm", "outcome"},
	)

	SolverLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_latency_seconds",
			Help:      "Wall-clock latency of solver gateway calls including retries (seconds).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"algorithm"},
	)

	ScenariosProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_processed_total",
			Help:      "Total number of scenarios processed by the batch executor, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	BatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Total number of finished batch runs, labeled by final status.",
		},
		[]string{"status"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of API requests rejected by the rate limiter.",
		},
		[]string{"scope", "operation"},
	)

	ReportsExportedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_exported_total",
			Help:      "Total number of report artifacts written.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SolverInvocationsTotal,
		SolverLatencySeconds,
		ScenariosProcessedTotal,
		BatchRunsTotal,
		RateLimitHitsTotal,
		ReportsExportedTotal,
	)
}
