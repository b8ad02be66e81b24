package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(healthFailures) }

var healthFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "health_check_failures_total",
		Help: "Failed dependency checks on /healthz, labeled by dependency.",
	},
	[]string{"dependency"},
)

func IncHealthFailure(dependency string) {
	healthFailures.WithLabelValues(norm(dependency)).Inc()
}
