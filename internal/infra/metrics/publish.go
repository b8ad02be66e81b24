package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(publishTotal) }

var publishTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "publisher_calls_total",
		Help: "Publisher calls, labeled by publisher, kind and result.",
	},
	[]string{"publisher", "kind", "result"}, // publisher: 'chat'|'document'; kind: 'content'|'report'|'error'|'status'
)

func IncPublish(publisher, kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	publishTotal.WithLabelValues(norm(publisher), norm(kind), result).Inc()
}
