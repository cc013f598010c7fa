package instrument

import (
	"log/slog"

	"phare-hq/phare/pkg/pricing"
	"phare-hq/phare/pkg/telemetry/metrics"
	"phare-hq/phare/pkg/tracing"
	"phare-hq/phare/pkg/usage"
)

// Args carries the telemetry machinery an instrumentor emits into.
// All fields except Core may be nil; instrumentors must tolerate absent
// metrics, pricing, and ledger wiring.
type Args struct {
	// Core creates and finalizes spans around instrumented boundaries.
	Core *tracing.Core

	// Metrics receives counters and durations, if metrics are enabled.
	Metrics *metrics.Collector

	// Pricing computes per-call cost from token usage.
	Pricing *pricing.Table

	// Usage receives per-call ledger records, if the ledger is enabled.
	Usage usage.Backend

	// Logger is the logger instrumentors report through.
	Logger *slog.Logger
}

// Instrumentor is a bundle of wrappers that makes one target library emit
// spans and metrics. Implementations must make Instrument and Uninstrument
// idempotent: re-instrumenting an already-instrumented target is a no-op,
// and partial application (some boundaries missing) is acceptable.
type Instrumentor interface {
	// Name is a short identifier used in logs and the disabled list.
	Name() string

	// Instrument applies the wrappers. Failures to locate individual
	// boundaries are logged and skipped; only total failure returns an error.
	Instrument(args Args) error

	// Uninstrument restores the original unwrapped values for every
	// boundary that was successfully wrapped.
	Uninstrument() error
}

// Loader describes how to obtain an instrumentor for a target module.
// The policy tables of the Manager map module paths to loaders.
type Loader struct {
	// Module is the target's module path as it appears in build info.
	// The reserved value "go" targets the Go runtime itself and is
	// version-gated against runtime.Version().
	Module string

	// MinVersion is the minimum target version the instrumentor supports,
	// as a semantic version string. Empty means any version.
	MinVersion string

	// New constructs the instrumentor. Called at most once per process
	// for a given module unless Reset intervenes.
	New func() Instrumentor
}
