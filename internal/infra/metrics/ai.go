package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(aiTokens, aiCallDuration) }

var (
	aiTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_ai_tokens_total",
			Help: "Tokens spent on explainer generation, by provider, model and direction.",
		},
		[]string{"provider", "model", "direction"}, // direction: 'prompt'|'completion'
	)

	aiCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generator_ai_call_duration_seconds",
			Help:    "LLM call latency for explainer generation.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"provider", "model", "outcome"}, // outcome: 'ok'|'error'
	)
)

// ObserveAICall records one provider call. Token counts are only added on success.
func ObserveAICall(provider, model string, promptTokens, completionTokens int, latency time.Duration, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
		aiTokens.WithLabelValues(norm(provider), norm(model), "prompt").Add(float64(promptTokens))
		aiTokens.WithLabelValues(norm(provider), norm(model), "completion").Add(float64(completionTokens))
	}
	aiCallDuration.WithLabelValues(norm(provider), norm(model), outcome).Observe(latency.Seconds())
}
