// Package telemetry groups the observability building blocks of the
// Phare SDK.
//
// # Components
//
//   - logging: structured logging with context-carried agent metadata
//   - metrics: Prometheus metrics collection and the standalone server
//   - export: authenticated OTLP/HTTP span export
//   - health: liveness and readiness probes for the pipeline
//
// The tracing core itself lives in pkg/tracing; these packages supply
// the transport and reporting around it. Applications normally reach
// them through pkg/client rather than directly.
package telemetry
