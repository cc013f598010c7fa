package tracing

import (
	"os"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on Phare spans.
const (
	// AttrSpanKind carries the SpanKind classification.
	AttrSpanKind = "phare.span.kind"

	// AttrSessionEndState carries the EndState of a finished session.
	AttrSessionEndState = "phare.session.end_state"

	// AttrSessionTags carries the tags attached at trace start.
	AttrSessionTags = "phare.tags"

	// AttrSessionID carries the client-assigned session identifier.
	AttrSessionID = "phare.session.id"
)

// endStateAttr returns the session end state attribute.
func endStateAttr(state EndState) attribute.KeyValue {
	return attribute.String(AttrSessionEndState, string(state))
}

// spanKindAttr returns the kind attribute for a span.
func spanKindAttr(kind SpanKind) attribute.KeyValue {
	return attribute.String(AttrSpanKind, string(kind))
}

// tagsAttr returns the tags attribute, or an empty slice when no tags
// were supplied.
func tagsAttr(tags []string) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}
	return []attribute.KeyValue{attribute.StringSlice(AttrSessionTags, tags)}
}

// hostAttributes snapshots the host environment. These are attached to
// session spans so each trace is self-describing even when the backend
// cannot resolve the producing resource.
func hostAttributes() []attribute.KeyValue {
	hostname, _ := os.Hostname()
	return []attribute.KeyValue{
		attribute.String("host.name", hostname),
		attribute.String("os.type", runtime.GOOS),
		attribute.String("host.arch", runtime.GOARCH),
		attribute.String("process.runtime.name", "go"),
		attribute.String("process.runtime.version", runtime.Version()),
		attribute.Int("process.pid", os.Getpid()),
		attribute.Int("host.cpu.count", runtime.NumCPU()),
	}
}
