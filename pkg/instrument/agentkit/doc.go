// Package agentkit instruments an agent framework through an injected
// Surface.
//
// The framework is reached at three boundaries: running one unit of agent
// work, invoking the model, and invoking a tool. The host application
// builds a Surface with its framework adapters and hands it to the
// instrumentation manager; when the instrumentor applies, each present
// member is swapped for an observing wrapper:
//
//   - The run wrapper times the whole run, forwards every stream event
//     unchanged, and records exactly one success-or-error observation when
//     the stream ends, even under cancellation. Errors from the wrapped
//     call are returned to the caller unchanged.
//   - The model wrapper reads the model name from the request and the
//     owning agent from the caller's context. Usage-carrying chunks
//     increment token counters and per-call cost from the pricing table;
//     totals land on the span and in the usage ledger.
//   - The tool wrapper counts invocations with their duration and status
//     by tool and agent.
//
// Uninstrument restores the original surface members. A surface missing
// some members is instrumented partially, with a warning per gap.
package agentkit
