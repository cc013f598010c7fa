// Package tracing implements the Phare tracing core.
//
// # Overview
//
// The tracing core owns a single OpenTelemetry tracer provider and a
// registry of active traces. A trace is rooted in a session span; child
// spans created through MakeSpan parent to it automatically, even when the
// caller's context carries no span of its own.
//
// Span names follow the "<operation>.<kind>" convention, where kind is one
// of the SpanKind values (session, agent, llm, tool, and so on). The kind
// is also recorded as the phare.span.kind attribute.
//
// # Lifecycle
//
//	core, err := tracing.Initialize(cfg, exporter, logger)
//	tc, err := core.StartTrace(ctx, "citizen-chat", "pilot")
//
//	ctx, span := core.MakeSpan(tc.Context(), "answer", tracing.SpanKindAgent)
//	// ... do work ...
//	core.FinalizeSpan(span, err)
//
//	core.EndTrace(tc, tracing.EndStateSuccess)
//	core.Shutdown(ctx)
//
// Traces still open when Shutdown runs are swept and recorded with
// EndStateShutdown, so abrupt exits remain visible in the backend.
package tracing
