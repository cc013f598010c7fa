package tracing

import (
	"context"
	"errors"
	"testing"

	"phare-hq/phare/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newTestCore builds a core backed by an in-memory exporter.
func newTestCore(t *testing.T) (*Core, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	core, err := New(config.DefaultConfig(), exporter, nil)
	if err != nil {
		t.Fatalf("failed to create core: %v", err)
	}
	return core, exporter
}

// flushSpans drains the batch processor into the exporter.
func flushSpans(t *testing.T, core *Core) {
	t.Helper()
	if err := core.Flush(context.Background()); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
}

func findAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartTrace_RegistersAndNames(t *testing.T) {
	core, exporter := newTestCore(t)

	tc, err := core.StartTrace(context.Background(), "citizen-chat", "pilot")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}
	if core.ActiveTraceCount() != 1 {
		t.Errorf("expected 1 active trace, got %d", core.ActiveTraceCount())
	}
	if tc.TraceID() == "" {
		t.Error("expected non-empty trace ID")
	}

	core.EndTrace(tc, EndStateSuccess)
	flushSpans(t, core)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}
	session := spans[0]
	if session.Name != "citizen-chat.session" {
		t.Errorf("expected span name %q, got %q", "citizen-chat.session", session.Name)
	}
	if v, ok := findAttr(session, AttrSpanKind); !ok || v.AsString() != "session" {
		t.Errorf("expected session kind attribute, got %v", session.Attributes)
	}
	if v, ok := findAttr(session, AttrSessionEndState); !ok || v.AsString() != "Success" {
		t.Errorf("expected Success end state, got %v", session.Attributes)
	}
	if v, ok := findAttr(session, AttrSessionTags); !ok || len(v.AsStringSlice()) != 1 {
		t.Errorf("expected tags attribute, got %v", session.Attributes)
	}
	if _, ok := findAttr(session, "host.name"); ok {
		t.Error("host snapshot belongs to the distinguished \"session\" name only")
	}
}

func TestStartTrace_HostSnapshotOnlyOnSessionName(t *testing.T) {
	core, exporter := newTestCore(t)

	named, err := core.StartTrace(context.Background(), "session")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}
	other, err := core.StartTrace(context.Background(), "checkout")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}

	core.EndTrace(named, EndStateSuccess)
	core.EndTrace(other, EndStateSuccess)

	for _, span := range exporter.GetSpans() {
		_, hasHost := findAttr(span, "host.name")
		switch span.Name {
		case "session.session":
			if !hasHost {
				t.Error("expected host snapshot on the session trace")
			}
		case "checkout.session":
			if hasHost {
				t.Errorf("unexpected host snapshot on %q", span.Name)
			}
		default:
			t.Errorf("unexpected span %q", span.Name)
		}
	}
}

func TestStartTrace_MergesDefaultTags(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := config.DefaultConfig()
	cfg.Client.DefaultTags = []string{"eu-west"}
	core, err := New(cfg, exporter, nil)
	if err != nil {
		t.Fatalf("failed to create core: %v", err)
	}

	tc, err := core.StartTrace(context.Background(), "t", "pilot")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}
	if got := tc.Tags(); len(got) != 2 || got[0] != "eu-west" || got[1] != "pilot" {
		t.Errorf("unexpected tags: %v", got)
	}
	core.EndTrace(tc, EndStateSuccess)
}

func TestEndTrace_NilEndsAll(t *testing.T) {
	core, exporter := newTestCore(t)

	for i := 0; i < 3; i++ {
		if _, err := core.StartTrace(context.Background(), "t"); err != nil {
			t.Fatalf("StartTrace failed: %v", err)
		}
	}
	if core.ActiveTraceCount() != 3 {
		t.Fatalf("expected 3 active traces, got %d", core.ActiveTraceCount())
	}

	core.EndTrace(nil, EndStateUnset)

	if core.ActiveTraceCount() != 0 {
		t.Errorf("expected registry drained, got %d", core.ActiveTraceCount())
	}
	flushSpans(t, core)
	for _, span := range exporter.GetSpans() {
		if v, ok := findAttr(span, AttrSessionEndState); !ok || v.AsString() != "Shutdown" {
			t.Errorf("expected Shutdown end state on %q, got %v", span.Name, span.Attributes)
		}
	}
}

func TestEndTrace_Isolation(t *testing.T) {
	core, _ := newTestCore(t)

	tc1, _ := core.StartTrace(context.Background(), "one")
	tc2, _ := core.StartTrace(context.Background(), "two")

	core.EndTrace(tc1, EndStateSuccess)

	if core.ActiveTraceCount() != 1 {
		t.Fatalf("expected 1 active trace after ending one, got %d", core.ActiveTraceCount())
	}
	ids := core.ActiveTraceIDs()
	if len(ids) != 1 || ids[0] != tc2.TraceID() {
		t.Errorf("expected only second trace active, got %v", ids)
	}

	// Ending the same trace again is a no-op.
	core.EndTrace(tc1, EndStateSuccess)
	if core.ActiveTraceCount() != 1 {
		t.Errorf("double end should be a no-op, got %d active", core.ActiveTraceCount())
	}
}

func TestEndTrace_FlushesEndedSpans(t *testing.T) {
	core, exporter := newTestCore(t)

	tc, err := core.StartTrace(context.Background(), "walk-in")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}
	core.EndTrace(tc, EndStateSuccess)

	// No explicit Flush: ending the trace must hand the span to the exporter.
	if got := len(exporter.GetSpans()); got != 1 {
		t.Fatalf("expected 1 exported span after EndTrace, got %d", got)
	}
}

func TestFinalizeSpan_FlushesEndedSpan(t *testing.T) {
	core, exporter := newTestCore(t)

	_, span := core.MakeSpan(context.Background(), "lookup", SpanKindTool)
	core.FinalizeSpan(span, nil)

	if got := len(exporter.GetSpans()); got != 1 {
		t.Fatalf("expected 1 exported span after FinalizeSpan, got %d", got)
	}
}

func TestMakeSpan_NamingAndParenting(t *testing.T) {
	core, exporter := newTestCore(t)

	tc, _ := core.StartTrace(context.Background(), "session-test")

	// Context without a span should still parent to the active trace.
	_, span := core.MakeSpan(context.Background(), "lookup", SpanKindTool)
	core.FinalizeSpan(span, nil)

	core.EndTrace(tc, EndStateSuccess)
	flushSpans(t, core)

	spans := exporter.GetSpans()
	var tool *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == "lookup.tool" {
			tool = &spans[i]
		}
	}
	if tool == nil {
		t.Fatalf("tool span not exported, got %v", spanNames(spans))
	}
	if tool.SpanContext.TraceID() != tc.Span().SpanContext().TraceID() {
		t.Error("expected orphan span to join the active trace")
	}
	if tool.Parent.SpanID() != tc.Span().SpanContext().SpanID() {
		t.Error("expected orphan span to parent to the session span")
	}
	if v, ok := findAttr(*tool, AttrSpanKind); !ok || v.AsString() != "tool" {
		t.Errorf("expected tool kind attribute, got %v", tool.Attributes)
	}
}

func TestMakeSpan_SessionKindStartsNewTrace(t *testing.T) {
	core, exporter := newTestCore(t)

	tc, err := core.StartTrace(context.Background(), "ambient")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}

	nestedCtx, nested := core.MakeSpan(tc.Context(), "handoff", SpanKindSession)
	if got := nested.SpanContext().TraceID(); got == tc.Span().SpanContext().TraceID() {
		t.Error("session-kind span should start its own trace, not reuse the ambient one")
	}

	// Children of the new session stay inside its trace.
	_, child := core.MakeSpan(nestedCtx, "lookup", SpanKindTool)
	if child.SpanContext().TraceID() != nested.SpanContext().TraceID() {
		t.Error("expected child to share the new session trace")
	}
	core.FinalizeSpan(child, nil)
	core.FinalizeSpan(nested, nil)
	core.EndTrace(tc, EndStateSuccess)

	spans := exporter.GetSpans()
	for _, span := range spans {
		if span.Name == "handoff.session" && span.Parent.IsValid() {
			t.Error("expected session-kind span to be a root span")
		}
	}
}

func TestMakeSpan_RootWhenNoActiveTraces(t *testing.T) {
	core, exporter := newTestCore(t)

	_, span := core.MakeSpan(context.Background(), "standalone", SpanKindOperation)
	core.FinalizeSpan(span, nil)
	flushSpans(t, core)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Parent.IsValid() {
		t.Error("expected root span when no traces are active")
	}
}

func TestFinalizeSpan_RecordsError(t *testing.T) {
	core, exporter := newTestCore(t)

	_, span := core.MakeSpan(context.Background(), "call", SpanKindLLM)
	core.FinalizeSpan(span, errors.New("model unavailable"))
	flushSpans(t, core)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "exception" {
		t.Errorf("expected one exception event, got %v", got.Events)
	}
}

func TestShutdown_SweepsAndRejects(t *testing.T) {
	core, exporter := newTestCore(t)

	if _, err := core.StartTrace(context.Background(), "left-open"); err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}

	if err := core.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if core.ActiveTraceCount() != 0 {
		t.Errorf("expected registry drained after shutdown, got %d", core.ActiveTraceCount())
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected swept span exported, got %d", len(spans))
	}
	if v, ok := findAttr(spans[0], AttrSessionEndState); !ok || v.AsString() != "Shutdown" {
		t.Errorf("expected Shutdown end state, got %v", spans[0].Attributes)
	}

	if _, err := core.StartTrace(context.Background(), "late"); !errors.Is(err, ErrShutdown) {
		t.Errorf("expected ErrShutdown after shutdown, got %v", err)
	}

	// Idempotent.
	if err := core.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown should be a no-op, got %v", err)
	}
}

func TestStartTrace_EmptyNameDefaults(t *testing.T) {
	core, exporter := newTestCore(t)

	tc, err := core.StartTrace(context.Background(), "")
	if err != nil {
		t.Fatalf("StartTrace failed: %v", err)
	}
	core.EndTrace(tc, EndStateSuccess)
	flushSpans(t, core)

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "trace.session" {
		t.Errorf("expected default name trace.session, got %v", spanNames(spans))
	}
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	return names
}
