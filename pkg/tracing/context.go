package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext is a handle to an active trace. It carries the session span,
// the context under which child spans should be created, and the metadata
// recorded at start time.
//
// A TraceContext stays valid until EndTrace is called with it, or until the
// core sweeps it during Shutdown.
type TraceContext struct {
	name      string
	tags      []string
	ctx       context.Context
	span      trace.Span
	startedAt time.Time
}

// Name returns the operation name the trace was started with.
func (tc *TraceContext) Name() string {
	return tc.name
}

// Tags returns the tags attached at trace start.
func (tc *TraceContext) Tags() []string {
	return tc.tags
}

// Context returns the context carrying the session span. Child spans
// created from this context parent to the session.
func (tc *TraceContext) Context() context.Context {
	return tc.ctx
}

// Span returns the session span.
func (tc *TraceContext) Span() trace.Span {
	return tc.span
}

// TraceID returns the hex trace identifier.
func (tc *TraceContext) TraceID() string {
	return tc.span.SpanContext().TraceID().String()
}

// SpanID returns the hex identifier of the session span.
func (tc *TraceContext) SpanID() string {
	return tc.span.SpanContext().SpanID().String()
}

// StartedAt returns when the trace was started.
func (tc *TraceContext) StartedAt() time.Time {
	return tc.startedAt
}
