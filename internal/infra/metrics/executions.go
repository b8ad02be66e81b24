package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(executionsTotal, executionAttemptsTotal, executionDurationSeconds, contentGeneratedTotal)
}

var (
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_executions_total",
			Help: "Finished retry-governed executions, labeled by terminal status.",
		},
		[]string{"status"}, // 'success', 'failed', 'cancelled'
	)

	executionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_execution_attempts_total",
			Help: "Attempts made inside executions, labeled by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'retryable', 'fatal'
	)

	executionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_execution_duration_seconds",
			Help:    "Wall-clock duration of a whole retry sequence.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900, 1800, 3600, 5400},
		},
	)

	contentGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_generated_total",
			Help: "Content records persisted, labeled by final status.",
		},
		[]string{"status"}, // 'published', 'draft'
	)
)

func IncExecution(status string) {
	executionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncAttempt(outcome string) {
	executionAttemptsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveExecutionDuration(seconds float64) {
	executionDurationSeconds.Observe(seconds)
}

func IncContent(status string) {
	contentGeneratedTotal.WithLabelValues(norm(status)).Inc()
}
