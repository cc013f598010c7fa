package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"phare-hq/phare/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// sdkVersion is reported as the service version on exported spans.
const sdkVersion = "0.1.0"

// sessionTraceName is the distinguished trace name whose root span carries
// the host environment snapshot.
const sessionTraceName = "session"

var (
	// ErrNotInitialized is returned when the singleton core is used
	// before Initialize.
	ErrNotInitialized = errors.New("tracing core not initialized")

	// ErrShutdown is returned when a trace is started after Shutdown.
	ErrShutdown = errors.New("tracing core is shut down")
)

// Core owns the tracer provider and the registry of active traces.
// It is the single entry point for starting and ending traces and for
// creating spans inside them.
//
// All methods are safe for concurrent use.
type Core struct {
	cfg      *config.Config
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	logger   *slog.Logger

	mu sync.Mutex
	// active maps hex trace IDs to their handles. order tracks
	// insertion so orphan spans can parent to the most recent trace.
	active   map[string]*TraceContext
	order    []string
	shutdown bool
}

var (
	globalCore *Core
	coreMutex  sync.RWMutex
)

// Initialize creates the singleton Core and installs its provider as the
// process-wide OpenTelemetry tracer provider. The exporter may be nil, in
// which case spans are recorded but never leave the process.
//
// Calling Initialize when a core already exists returns the existing core.
func Initialize(cfg *config.Config, exporter sdktrace.SpanExporter, logger *slog.Logger) (*Core, error) {
	coreMutex.Lock()
	defer coreMutex.Unlock()

	if globalCore != nil {
		return globalCore, nil
	}

	core, err := New(cfg, exporter, logger)
	if err != nil {
		return nil, err
	}
	globalCore = core
	return core, nil
}

// Get returns the singleton Core, or nil if Initialize has not been called.
func Get() *Core {
	coreMutex.RLock()
	defer coreMutex.RUnlock()
	return globalCore
}

// ResetForTesting clears the singleton so tests can initialize fresh cores.
func ResetForTesting() {
	coreMutex.Lock()
	defer coreMutex.Unlock()
	globalCore = nil
}

// New creates a Core with its own tracer provider. Most callers should use
// Initialize; New exists for tests and embedded use.
func New(cfg *config.Config, exporter sdktrace.SpanExporter, logger *slog.Logger) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.Service.Name),
			semconv.ServiceVersion(sdkVersion),
			semconv.DeploymentEnvironment(cfg.Service.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(cfg.Exporter.MaxQueueSize),
			sdktrace.WithBatchTimeout(cfg.Exporter.ScheduleDelay),
		))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return &Core{
		cfg:      cfg,
		provider: provider,
		tracer:   provider.Tracer("phare"),
		logger:   logger.With("component", "tracing"),
		active:   make(map[string]*TraceContext),
	}, nil
}

// StartTrace begins a new root trace. The session span is named
// "<name>.session" and carries the supplied tags merged with the
// configured default tags. The distinguished name "session" additionally
// gets a snapshot of the host environment.
//
// The returned TraceContext must eventually be passed to EndTrace; traces
// still open at Shutdown are swept with EndStateShutdown.
func (c *Core) StartTrace(ctx context.Context, name string, tags ...string) (*TraceContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return nil, ErrShutdown
	}
	if name == "" {
		name = "trace"
	}

	allTags := append(append([]string(nil), c.cfg.Client.DefaultTags...), tags...)

	opts := []trace.SpanStartOption{
		trace.WithNewRoot(),
		trace.WithAttributes(spanKindAttr(SpanKindSession)),
		trace.WithAttributes(tagsAttr(allTags)...),
	}
	if name == sessionTraceName {
		opts = append(opts, trace.WithAttributes(hostAttributes()...))
	}

	spanCtx, span := c.tracer.Start(ctx, SpanName(name, SpanKindSession), opts...)

	tc := &TraceContext{
		name:      name,
		tags:      allTags,
		ctx:       spanCtx,
		span:      span,
		startedAt: time.Now(),
	}

	id := tc.TraceID()
	c.active[id] = tc
	c.order = append(c.order, id)

	c.logger.Debug("trace started", "trace_id", id, "name", name, "active", len(c.active))
	return tc, nil
}

// EndTrace finishes a trace, removes it from the active registry, and
// pushes the ended spans to the exporter with a best-effort flush.
// A nil TraceContext ends every active trace, which is the shutdown sweep
// behavior; in that case state defaults to EndStateShutdown.
//
// Ending a trace that is no longer registered is a no-op.
func (c *Core) EndTrace(tc *TraceContext, state EndState) {
	c.mu.Lock()

	ended := 0
	if tc == nil {
		if state == EndStateUnset || state == "" {
			state = EndStateShutdown
		}
		ended = len(c.active)
		c.endAllLocked(state)
	} else if _, ok := c.active[tc.TraceID()]; ok {
		c.endOneLocked(tc, state)
		ended = 1
	}

	c.mu.Unlock()

	if ended > 0 {
		c.flushBestEffort()
	}
}

// endAllLocked ends every active trace with the given state.
// Caller must hold c.mu.
func (c *Core) endAllLocked(state EndState) {
	for _, id := range append([]string(nil), c.order...) {
		if tc, ok := c.active[id]; ok {
			c.endOneLocked(tc, state)
		}
	}
}

// endOneLocked finalizes a single session span and unregisters it.
// Caller must hold c.mu.
func (c *Core) endOneLocked(tc *TraceContext, state EndState) {
	if state == EndStateUnset || state == "" {
		state = EndStateSuccess
	}

	tc.span.SetAttributes(endStateAttr(state))
	if state == EndStateError {
		tc.span.SetStatus(codes.Error, "trace ended with error")
	} else {
		tc.span.SetStatus(codes.Ok, "")
	}
	tc.span.End()

	id := tc.TraceID()
	delete(c.active, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.logger.Debug("trace ended", "trace_id", id, "name", tc.name, "end_state", string(state))
}

// MakeSpan creates a span named "<operation>.<kind>". Session-kind spans
// always start a fresh trace of their own; every other kind attaches to the
// span in ctx, falling back to the most recently started active trace, and
// becomes a root span when neither exists.
//
// The returned span must be passed to FinalizeSpan (or ended directly).
func (c *Core) MakeSpan(ctx context.Context, operation string, kind SpanKind) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithAttributes(spanKindAttr(kind))}
	if kind == SpanKindSession {
		opts = append(opts, trace.WithNewRoot())
	} else if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		if parent := c.currentTrace(); parent != nil {
			ctx = parent.Context()
		}
	}

	return c.tracer.Start(ctx, SpanName(operation, kind), opts...)
}

// FinalizeSpan ends a span, recording err when non-nil. A nil error marks
// the span OK; a non-nil error records the error event and sets the span
// status to Error. The ended span is handed to the exporter with a
// best-effort flush.
func (c *Core) FinalizeSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	c.flushBestEffort()
}

// currentTrace returns the most recently started active trace, or nil.
func (c *Core) currentTrace() *TraceContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.order) == 0 {
		return nil
	}
	return c.active[c.order[len(c.order)-1]]
}

// ActiveTraceCount returns the number of traces currently registered.
func (c *Core) ActiveTraceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// ActiveTraceIDs returns the hex IDs of all registered traces in start order.
func (c *Core) ActiveTraceIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Flush forces the batch processor to export any queued spans.
func (c *Core) Flush(ctx context.Context) error {
	return c.provider.ForceFlush(ctx)
}

// flushBestEffort pushes queued spans to the exporter, swallowing any
// failure. Ended traces should reach the backend without waiting for the
// next batch tick, but a flush error never surfaces to the caller.
func (c *Core) flushBestEffort() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Exporter.FlushInterval)
	defer cancel()
	if err := c.provider.ForceFlush(ctx); err != nil {
		c.logger.Debug("flush after end failed", "error", err)
	}
}

// Shutdown sweeps all active traces with EndStateShutdown, flushes queued
// spans, and shuts down the tracer provider. Subsequent StartTrace calls
// return ErrShutdown. Shutdown is idempotent.
func (c *Core) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.shutdown = true
	swept := len(c.active)
	c.endAllLocked(EndStateShutdown)
	c.mu.Unlock()

	if swept > 0 {
		c.logger.Info("swept active traces at shutdown", "count", swept)
	}

	flushCtx, cancel := context.WithTimeout(ctx, c.cfg.Exporter.FlushInterval)
	defer cancel()
	if err := c.provider.ForceFlush(flushCtx); err != nil {
		c.logger.Warn("force flush failed", "error", err)
	}

	return c.provider.Shutdown(ctx)
}
