package metrics

import (
	"time"

	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ToolMetrics tracks metrics for tool invocation boundaries.
//
// Metrics:
//   - phare_tool_calls_total: Total invocation count by tool and status
//   - phare_tool_call_duration_seconds: Invocation duration histogram
type ToolMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewToolMetrics creates and registers tool metrics with the provided registry.
func NewToolMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ToolMetrics {
	tm := &ToolMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_calls_total",
				Help:      "Total number of tool invocations",
			},
			[]string{"tool", "agent", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(
		tm.callsTotal,
		tm.callDuration,
	)

	return tm
}

// RecordCall records a completed tool invocation.
func (tm *ToolMetrics) RecordCall(tool, agent, status string, duration time.Duration) {
	tm.callsTotal.WithLabelValues(tool, agent, status).Inc()
	tm.callDuration.WithLabelValues(tool).Observe(duration.Seconds())
}
