package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(commandsTotal, reportsTotal, triggersTotal) }

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Commands handled, labeled by verb and outcome.",
		},
		[]string{"verb", "outcome"}, // outcome: 'ok'|'rejected'|'error'|'unauthorized'|'rate_limited'
	)

	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Reports generated, labeled by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	triggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_trigger_fires_total",
			Help: "Trigger fires, labeled by job kind and what happened.",
		},
		[]string{"job", "result"}, // result: 'run'|'paused'|'locked'|'queued'|'dropped'
	)
)

func IncCommand(verb, outcome string) {
	commandsTotal.WithLabelValues(norm(verb), norm(outcome)).Inc()
}

func IncReport(reportType, outcome string) {
	reportsTotal.WithLabelValues(norm(reportType), norm(outcome)).Inc()
}

func IncTrigger(job, result string) {
	triggersTotal.WithLabelValues(norm(job), norm(result)).Inc()
}
