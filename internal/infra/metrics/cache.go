package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequests) }

var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups, labeled by cache and result.",
	},
	[]string{"cache", "result"}, // result: 'hit'|'miss'|'error'
)

func IncCacheRequest(cache, result string) {
	cacheRequests.WithLabelValues(norm(cache), norm(result)).Inc()
}
