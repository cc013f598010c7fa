// Package instrument decides which telemetry instrumentors attach to which
// target libraries.
//
// # Overview
//
// The Manager holds two policy tables keyed by module path: providers
// (model SDKs) and agentic libraries (full agent frameworks). Hosts
// announce targets with OnLoad at composition time; Scan covers modules
// already linked into the binary. A candidate is applied only when it
// resolves to a genuinely installed dependency (present in build info,
// not replaced locally, not a devel build) whose version meets the
// instrumentor's declared minimum.
//
// # Arbitration
//
// Providers coexist with each other. The first agentic library to activate
// wins exclusively: every active provider is uninstrumented first, and all
// later instrumentation attempts of either class are refused for the rest
// of the process.
//
// # Failure policy
//
// Resolution, version checks, and application failures for one candidate
// are logged and never block other candidates or future load events.
// Instrumentation problems must never be fatal to the host application.
//
// The reserved module key "go" targets the Go runtime itself and is
// version-gated against runtime.Version().
package instrument
