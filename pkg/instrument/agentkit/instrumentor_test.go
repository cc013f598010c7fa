package agentkit

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/instrument"
	"phare-hq/phare/pkg/pricing"
	"phare-hq/phare/pkg/telemetry/metrics"
	"phare-hq/phare/pkg/tracing"
	"phare-hq/phare/pkg/usage"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// sliceEventStream yields fixed events then a terminal error (io.EOF for
// normal exhaustion).
type sliceEventStream struct {
	events []*Event
	final  error
	pos    int
}

func (s *sliceEventStream) Recv() (*Event, error) {
	if s.pos < len(s.events) {
		ev := s.events[s.pos]
		s.pos++
		return ev, nil
	}
	if s.final != nil {
		return nil, s.final
	}
	return nil, io.EOF
}

type fakeRunner struct {
	stream EventStream
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, inv *Invocation) (EventStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type sliceChunkStream struct {
	chunks []*Chunk
	final  error
	pos    int
}

func (s *sliceChunkStream) Recv() (*Chunk, error) {
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.final != nil {
		return nil, s.final
	}
	return nil, io.EOF
}

type fakeModel struct {
	stream ChunkStream
	err    error
}

func (f *fakeModel) CallModel(ctx context.Context, req *ModelRequest) (ChunkStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// testArgs builds Args wired to in-memory sinks.
func testArgs(t *testing.T) (instrument.Args, *tracetest.InMemoryExporter, *metrics.Collector, *usage.MemoryBackend) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	core, err := tracing.New(config.DefaultConfig(), exporter, nil)
	if err != nil {
		t.Fatalf("failed to create tracing core: %v", err)
	}
	t.Cleanup(func() { core.Shutdown(context.Background()) })

	cfg := config.DefaultConfig()
	collector := metrics.NewCollector(&cfg.Metrics, prometheus.NewRegistry())

	table, err := pricing.NewTable(cfg.Pricing)
	if err != nil {
		t.Fatalf("failed to create pricing table: %v", err)
	}

	ledger := usage.NewMemoryBackend()

	return instrument.Args{
		Core:    core,
		Metrics: collector,
		Pricing: table,
		Usage:   ledger,
	}, exporter, collector, ledger
}

// metricValue reads one sample from the registry by metric name and labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	sample:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
						break
					}
				}
				if !found {
					continue sample
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func drainEvents(t *testing.T, stream EventStream) ([]*Event, error) {
	t.Helper()
	var events []*Event
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, err
		}
		events = append(events, ev)
	}
}

func TestRunner_StreamPassthrough(t *testing.T) {
	args, exporter, collector, _ := testArgs(t)

	want := []*Event{
		{Type: "text", Content: "hello"},
		{Type: "text", Content: "world"},
	}
	surface := &Surface{
		Runner: &fakeRunner{stream: &sliceEventStream{events: want}},
	}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	stream, err := surface.Runner.Run(context.Background(), &Invocation{Agent: "benefits-agent"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got, err := drainEvents(t, stream)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d not forwarded unchanged", i)
		}
	}

	if err := args.Core.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "benefits-agent.agent" {
		t.Errorf("Unexpected span name %q", spans[0].Name)
	}

	runs := metricValue(t, collector.Registry(), "phare_agent_runs_total",
		map[string]string{"agent": "benefits-agent", "status": "success"})
	if runs != 1 {
		t.Errorf("Expected 1 successful run, got %v", runs)
	}
}

func TestRunner_RunErrorUnchanged(t *testing.T) {
	args, _, collector, _ := testArgs(t)

	sentinel := errors.New("runner exploded")
	surface := &Surface{Runner: &fakeRunner{err: sentinel}}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	_, err := surface.Runner.Run(context.Background(), &Invocation{Agent: "benefits-agent"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected original error, got %v", err)
	}

	runs := metricValue(t, collector.Registry(), "phare_agent_runs_total",
		map[string]string{"agent": "benefits-agent", "status": "error"})
	if runs != 1 {
		t.Errorf("Expected 1 failed run, got %v", runs)
	}
}

func TestRunner_StreamErrorObservedOnce(t *testing.T) {
	args, _, collector, _ := testArgs(t)

	sentinel := errors.New("stream broke")
	surface := &Surface{
		Runner: &fakeRunner{stream: &sliceEventStream{
			events: []*Event{{Type: "text", Content: "partial"}},
			final:  sentinel,
		}},
	}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	stream, err := surface.Runner.Run(context.Background(), &Invocation{Agent: "benefits-agent"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("First Recv failed: %v", err)
	}
	if _, err := stream.Recv(); !errors.Is(err, sentinel) {
		t.Fatalf("Expected original stream error, got %v", err)
	}
	// A second terminal Recv must not produce a second observation.
	_, _ = stream.Recv()

	runs := metricValue(t, collector.Registry(), "phare_agent_runs_total",
		map[string]string{"agent": "benefits-agent", "status": "error"})
	if runs != 1 {
		t.Errorf("Expected exactly 1 error observation, got %v", runs)
	}
}

func TestModel_UsageAndCost(t *testing.T) {
	args, exporter, collector, ledger := testArgs(t)

	surface := &Surface{
		Model: &fakeModel{stream: &sliceChunkStream{chunks: []*Chunk{
			{Content: "partial"},
			{Content: "done", Usage: &Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500}},
		}}},
	}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	ctx := context.Background()
	stream, err := surface.Model.CallModel(ctx, &ModelRequest{Model: "gemini-2.5-flash"})
	if err != nil {
		t.Fatalf("CallModel failed: %v", err)
	}
	for {
		if _, err := stream.Recv(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Stream failed: %v", err)
			}
			break
		}
	}

	promptTokens := metricValue(t, collector.Registry(), "phare_agent_llm_tokens_total",
		map[string]string{"model": "gemini-2.5-flash", "type": "prompt"})
	if promptTokens != 1000 {
		t.Errorf("Expected 1000 prompt tokens, got %v", promptTokens)
	}
	cost := metricValue(t, collector.Registry(), "phare_agent_llm_cost_usd_total",
		map[string]string{"model": "gemini-2.5-flash"})
	if math.Abs(cost-0.00155) > 1e-9 {
		t.Errorf("Expected cost 0.00155, got %v", cost)
	}

	totals, err := ledger.TotalsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("TotalsSince failed: %v", err)
	}
	if totals.Records != 1 || totals.PromptTokens != 1000 || totals.CompletionTokens != 500 {
		t.Errorf("Unexpected ledger totals: %+v", totals)
	}
	if math.Abs(totals.CostUSD-0.00155) > 1e-9 {
		t.Errorf("Expected ledger cost 0.00155, got %v", totals.CostUSD)
	}

	if err := args.Core.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "gemini-2.5-flash.llm" {
		t.Errorf("Unexpected span name %q", spans[0].Name)
	}
}

func TestModel_ErrorUnchanged(t *testing.T) {
	args, _, collector, _ := testArgs(t)

	sentinel := errors.New("model unavailable")
	surface := &Surface{Model: &fakeModel{err: sentinel}}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	_, err := surface.Model.CallModel(context.Background(), &ModelRequest{Model: "gpt-4o"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected original error, got %v", err)
	}

	calls := metricValue(t, collector.Registry(), "phare_agent_llm_calls_total",
		map[string]string{"model": "gpt-4o", "status": "error"})
	if calls != 1 {
		t.Errorf("Expected 1 failed call, got %v", calls)
	}
}

func TestTool_Passthrough(t *testing.T) {
	args, _, collector, _ := testArgs(t)

	sentinel := errors.New("tool failed")
	calls := 0
	surface := &Surface{
		Tool: func(ctx context.Context, tool Tool, toolArgs map[string]any, tc *ToolContext) (any, error) {
			calls++
			if tool.Name == "broken_tool" {
				return nil, sentinel
			}
			return "ok", nil
		},
	}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}

	result, err := surface.Tool(context.Background(), Tool{Name: "lookup_case"}, nil, &ToolContext{Agent: "benefits-agent"})
	if err != nil {
		t.Fatalf("Tool call failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("Expected result passthrough, got %v", result)
	}

	if _, err := surface.Tool(context.Background(), Tool{Name: "broken_tool"}, nil, &ToolContext{Agent: "benefits-agent"}); !errors.Is(err, sentinel) {
		t.Fatalf("Expected original tool error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 inner calls, got %d", calls)
	}

	success := metricValue(t, collector.Registry(), "phare_agent_tool_calls_total",
		map[string]string{"tool": "lookup_case", "agent": "benefits-agent", "status": "success"})
	if success != 1 {
		t.Errorf("Expected 1 successful tool call, got %v", success)
	}
	failed := metricValue(t, collector.Registry(), "phare_agent_tool_calls_total",
		map[string]string{"tool": "broken_tool", "agent": "benefits-agent", "status": "error"})
	if failed != 1 {
		t.Errorf("Expected 1 failed tool call, got %v", failed)
	}
}

func TestInstrumentor_PartialSurface(t *testing.T) {
	args, _, _, _ := testArgs(t)

	surface := &Surface{
		Runner: &fakeRunner{stream: &sliceEventStream{}},
	}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Expected partial instrumentation to succeed, got %v", err)
	}
	if _, ok := surface.Runner.(*instrumentedRunner); !ok {
		t.Error("Expected runner to be wrapped")
	}
	if surface.Model != nil || surface.Tool != nil {
		t.Error("Expected missing members to stay nil")
	}
}

func TestInstrumentor_EmptySurface(t *testing.T) {
	args, _, _, _ := testArgs(t)

	inst := New(&Surface{})
	if err := inst.Instrument(args); err == nil {
		t.Error("Expected error for surface with no boundaries")
	}
}

func TestInstrumentor_UninstrumentRestores(t *testing.T) {
	args, _, _, _ := testArgs(t)

	runner := &fakeRunner{stream: &sliceEventStream{}}
	model := &fakeModel{stream: &sliceChunkStream{}}
	tool := func(ctx context.Context, t Tool, a map[string]any, tc *ToolContext) (any, error) {
		return nil, nil
	}
	surface := &Surface{Runner: runner, Model: model, Tool: tool}

	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}
	if surface.Runner == AgentRunner(runner) {
		t.Fatal("Expected runner to be wrapped")
	}

	if err := inst.Uninstrument(); err != nil {
		t.Fatalf("Uninstrument failed: %v", err)
	}
	if surface.Runner != AgentRunner(runner) {
		t.Error("Expected runner restored")
	}
	if surface.Model != ModelCaller(model) {
		t.Error("Expected model caller restored")
	}
	if surface.Tool == nil {
		t.Error("Expected tool restored")
	}
}

func TestInstrumentor_ReapplyIsNoop(t *testing.T) {
	args, _, _, _ := testArgs(t)

	surface := &Surface{Runner: &fakeRunner{stream: &sliceEventStream{}}}
	inst := New(surface)
	if err := inst.Instrument(args); err != nil {
		t.Fatalf("First Instrument failed: %v", err)
	}
	wrapped := surface.Runner

	if err := inst.Instrument(args); err != nil {
		t.Fatalf("Second Instrument failed: %v", err)
	}
	if surface.Runner != wrapped {
		t.Error("Expected second Instrument to leave the wrapper untouched")
	}
}
