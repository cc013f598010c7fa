// Package metrics provides Prometheus metrics collection for Phare.
//
// # Overview
//
// The metrics package implements Prometheus metrics for the instrumented
// boundaries of an agent application: agent runs, model calls, tool
// invocations, session lifecycle, and span export outcomes.
//
// # Metrics Categories
//
//   - Agent Metrics: Run count and duration by agent
//   - LLM Metrics: Call count, duration, tokens, and cost by model
//   - Tool Metrics: Invocation count and duration by tool
//   - Session Metrics: Active session gauge, end states, export batches
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//
//	collector.RecordAgentRun("benefits-agent", "success", 2300*time.Millisecond)
//	collector.RecordModelCall("gemini-2.5-flash", "benefits-agent", "success", 850*time.Millisecond)
//	collector.RecordTokens("gemini-2.5-flash", "benefits-agent", 1000, 500)
//	collector.RecordCost("gemini-2.5-flash", "benefits-agent", 0.00155)
//	collector.RecordToolCall("lookup_case", "benefits-agent", "success", 40*time.Millisecond)
//
// # Prometheus Endpoint
//
// All metrics are exposed through Handler in standard Prometheus format:
//
//	# HELP phare_agent_runs_total Total number of agent runs
//	# TYPE phare_agent_runs_total counter
//	phare_agent_runs_total{agent="benefits-agent",status="success"} 42
//
// When MetricsConfig.ListenAddress is set, NewServer starts a standalone
// HTTP server for scraping; otherwise mount Handler on the host mux.
package metrics
