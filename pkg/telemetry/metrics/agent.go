package metrics

import (
	"time"

	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AgentMetrics tracks metrics for agent run boundaries.
//
// Metrics:
//   - phare_agent_runs_total: Total run count by agent and status
//   - phare_agent_run_duration_seconds: Run duration histogram
type AgentMetrics struct {
	// Total run count
	runsTotal *prometheus.CounterVec

	// Run duration histogram
	runDuration *prometheus.HistogramVec
}

// NewAgentMetrics creates and registers agent metrics with the provided registry.
func NewAgentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AgentMetrics {
	am := &AgentMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of agent runs",
			},
			[]string{"agent", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of agent runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"agent"},
		),
	}

	registry.MustRegister(
		am.runsTotal,
		am.runDuration,
	)

	return am
}

// RecordRun records a completed agent run.
func (am *AgentMetrics) RecordRun(agent, status string, duration time.Duration) {
	am.runsTotal.WithLabelValues(agent, status).Inc()
	am.runDuration.WithLabelValues(agent).Observe(duration.Seconds())
}
