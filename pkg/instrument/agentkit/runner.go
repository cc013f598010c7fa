package agentkit

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"phare-hq/phare/pkg/instrument"
	"phare-hq/phare/pkg/telemetry/logging"
	"phare-hq/phare/pkg/tracing"
)

// unknownName labels observations when a boundary cannot identify its
// subject.
const unknownName = "unknown"

// instrumentedRunner observes the agent run boundary. The wrapped stream
// is forwarded item by item without buffering; the run's terminal status
// is observed exactly once, when the stream ends or when Run itself fails.
type instrumentedRunner struct {
	inner AgentRunner
	args  instrument.Args
}

func (r *instrumentedRunner) Run(ctx context.Context, inv *Invocation) (EventStream, error) {
	agent := unknownName
	if inv != nil && inv.Agent != "" {
		agent = inv.Agent
	}
	ctx = logging.WithAgent(ctx, agent)
	if inv != nil && inv.SessionID != "" {
		ctx = logging.WithSessionID(ctx, inv.SessionID)
	}

	var span trace.Span
	if r.args.Core != nil {
		ctx, span = r.args.Core.MakeSpan(ctx, agent, tracing.SpanKindAgent)
		span.SetAttributes(attribute.String("phare.agent.name", agent))
	}

	start := time.Now()
	finish := terminalObservation(func(err error) {
		if r.args.Core != nil {
			r.args.Core.FinalizeSpan(span, err)
		}
		if r.args.Metrics != nil {
			r.args.Metrics.RecordAgentRun(agent, statusOf(err), time.Since(start))
		}
	})

	stream, err := r.inner.Run(ctx, inv)
	if err != nil {
		finish(err)
		// The original error is returned unchanged.
		return nil, err
	}

	return &observedEventStream{inner: stream, finish: finish}, nil
}

// observedEventStream forwards every event unchanged and reports the
// stream's terminal state exactly once.
type observedEventStream struct {
	inner  EventStream
	finish func(error)
}

func (s *observedEventStream) Recv() (*Event, error) {
	ev, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.finish(nil)
		} else {
			s.finish(err)
		}
	}
	return ev, err
}

// terminalObservation wraps a finish callback so it fires at most once,
// even when a cancellation error races with normal stream exhaustion.
func terminalObservation(fn func(error)) func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() { fn(err) })
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
