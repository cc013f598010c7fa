package metrics

import (
	"time"

	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMMetrics tracks metrics for model call boundaries.
//
// Metrics:
//   - phare_llm_calls_total: Total call count by model and status
//   - phare_llm_call_duration_seconds: Call duration histogram
//   - phare_llm_tokens_total: Token usage by model and type
//   - phare_llm_cost_usd_total: Accumulated cost in USD by model
//   - phare_llm_cost_per_call_usd: Cost distribution per call
type LLMMetrics struct {
	// Total call count
	callsTotal *prometheus.CounterVec

	// Call duration histogram
	callDuration *prometheus.HistogramVec

	// Token counts (prompt and completion)
	tokensTotal *prometheus.CounterVec

	// Total cost counter (in USD)
	costTotal *prometheus.CounterVec

	// Cost per call histogram (in USD)
	costPerCall *prometheus.HistogramVec
}

// NewLLMMetrics creates and registers model call metrics with the provided registry.
func NewLLMMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LLMMetrics {
	lm := &LLMMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "llm_calls_total",
				Help:      "Total number of model calls",
			},
			[]string{"model", "agent", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "llm_call_duration_seconds",
				Help:      "Duration of model calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "llm_tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"model", "agent", "type"},
		),

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "llm_cost_usd_total",
				Help:      "Total model cost in USD",
			},
			[]string{"model", "agent"},
		),

		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "llm_cost_per_call_usd",
				Help:      "Cost distribution per model call in USD",
				// $0.0001 to $10, sized for per-call LLM pricing
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(
		lm.callsTotal,
		lm.callDuration,
		lm.tokensTotal,
		lm.costTotal,
		lm.costPerCall,
	)

	return lm
}

// RecordCall records a completed model call.
func (lm *LLMMetrics) RecordCall(model, agent, status string, duration time.Duration) {
	lm.callsTotal.WithLabelValues(model, agent, status).Inc()
	lm.callDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordTokens records token counts separately for prompt and completion.
func (lm *LLMMetrics) RecordTokens(model, agent string, promptTokens, completionTokens int64) {
	if promptTokens > 0 {
		lm.tokensTotal.WithLabelValues(model, agent, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		lm.tokensTotal.WithLabelValues(model, agent, "completion").Add(float64(completionTokens))
	}
}

// RecordCost records the cost of a single model call. Zero-cost calls are
// skipped so models without pricing do not pollute the histogram.
func (lm *LLMMetrics) RecordCost(model, agent string, costUSD float64) {
	if costUSD <= 0 {
		return
	}

	lm.costTotal.WithLabelValues(model, agent).Add(costUSD)
	lm.costPerCall.WithLabelValues(model).Observe(costUSD)
}
