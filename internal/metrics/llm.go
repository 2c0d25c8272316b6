package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLM structured-call Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chowgpt",
			Name:      "llm_requests_total",
			Help:      "Total number of structured LLM calls",
		},
		[]string{"model", "function", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chowgpt",
			Name:      "llm_request_duration_seconds",
			Help:      "Structured LLM call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"model", "function"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chowgpt",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "type"}, // type: "prompt" / "completion"
	)
)

// Search pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chowgpt",
			Name:      "search_requests_total",
			Help:      "Total search pipeline executions",
		},
		[]string{"status"}, // "ok" / "error"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chowgpt",
			Name:      "search_stage_duration_seconds",
			Help:      "Per-stage search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chowgpt",
			Name:      "search_fallback_total",
			Help:      "Degraded-path activations in the search pipeline",
		},
		[]string{"stage"}, // "rewrite" / "keyword_only" / "ai_scoring"
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers LLM and pipeline metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(SearchFallbackTotal)
	llmMetricsRegistered = true
}
