package metrics

import (
	"time"

	"phare-hq/phare/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Phare.
// It manages metric registration and provides a unified interface for
// recording metrics across the instrumented boundaries.
//
// The collector is designed for low overhead on the hot path:
//   - Pre-allocated metric instances
//   - A single enabled check before any recording
//   - Histogram buckets sized for agent and LLM latencies
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	enabled  bool

	// Agent run metrics
	agentMetrics *AgentMetrics

	// Model call metrics (latency, tokens, cost)
	llmMetrics *LLMMetrics

	// Tool invocation metrics
	toolMetrics *ToolMetrics

	// Session gauge and export counters
	sessionMetrics *SessionMetrics
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "phare"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "agent"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Covers fast tool calls (10ms) through slow agent runs (30s)
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	}

	enabled := cfg.Enabled == nil || *cfg.Enabled

	c := &Collector{
		config:   cfg,
		registry: registry,
		enabled:  enabled,
	}

	// Initialize metric subsystems
	c.agentMetrics = NewAgentMetrics(cfg, registry)
	c.llmMetrics = NewLLMMetrics(cfg, registry)
	c.toolMetrics = NewToolMetrics(cfg, registry)
	c.sessionMetrics = NewSessionMetrics(cfg, registry)

	return c
}

// RecordAgentRun records metrics for a completed agent run.
//
// Parameters:
//   - agent: Agent name
//   - status: Run status ("success" or "error")
//   - duration: Total run duration
func (c *Collector) RecordAgentRun(agent, status string, duration time.Duration) {
	if !c.enabled {
		return
	}

	c.agentMetrics.RecordRun(agent, status, duration)
}

// RecordModelCall records metrics for a completed model call.
//
// Parameters:
//   - model: Model name (e.g., "gemini-2.5-flash")
//   - agent: Owning agent name
//   - status: Call status ("success" or "error")
//   - duration: Call duration including stream consumption
func (c *Collector) RecordModelCall(model, agent, status string, duration time.Duration) {
	if !c.enabled {
		return
	}

	c.llmMetrics.RecordCall(model, agent, status, duration)
}

// RecordTokens records token usage for a model call, split by type.
func (c *Collector) RecordTokens(model, agent string, promptTokens, completionTokens int64) {
	if !c.enabled {
		return
	}

	c.llmMetrics.RecordTokens(model, agent, promptTokens, completionTokens)
}

// RecordCost records the USD cost of a model call.
func (c *Collector) RecordCost(model, agent string, costUSD float64) {
	if !c.enabled {
		return
	}

	c.llmMetrics.RecordCost(model, agent, costUSD)
}

// RecordToolCall records metrics for a completed tool invocation.
//
// Parameters:
//   - tool: Tool name
//   - agent: Owning agent name
//   - status: Call status ("success" or "error")
//   - duration: Invocation duration
func (c *Collector) RecordToolCall(tool, agent, status string, duration time.Duration) {
	if !c.enabled {
		return
	}

	c.toolMetrics.RecordCall(tool, agent, status, duration)
}

// SessionStarted increments the active session gauge.
func (c *Collector) SessionStarted() {
	if !c.enabled {
		return
	}

	c.sessionMetrics.SessionStarted()
}

// SessionEnded decrements the active session gauge and counts the end state.
func (c *Collector) SessionEnded(endState string) {
	if !c.enabled {
		return
	}

	c.sessionMetrics.SessionEnded(endState)
}

// RecordExport records the outcome of a span export batch.
//
// Parameters:
//   - status: "success", "auth_failure", "cooldown", or "error"
//   - spans: Number of spans in the batch
func (c *Collector) RecordExport(status string, spans int) {
	if !c.enabled {
		return
	}

	c.sessionMetrics.RecordExport(status, spans)
}

// Enabled reports whether the collector records metrics.
func (c *Collector) Enabled() bool {
	return c.enabled
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
