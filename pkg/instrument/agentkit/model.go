package agentkit

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"phare-hq/phare/pkg/instrument"
	"phare-hq/phare/pkg/telemetry/logging"
	"phare-hq/phare/pkg/tracing"
	"phare-hq/phare/pkg/usage"
)

// instrumentedModel observes the model call boundary. The model name is
// read from the request; the owning agent comes from the caller's context.
// Usage-carrying chunks increment token and cost counters as they stream.
type instrumentedModel struct {
	inner ModelCaller
	args  instrument.Args
}

func (m *instrumentedModel) CallModel(ctx context.Context, req *ModelRequest) (ChunkStream, error) {
	model := unknownName
	if req != nil && req.Model != "" {
		model = req.Model
	}
	agent := logging.GetAgent(ctx)
	if agent == "" {
		agent = unknownName
	}
	ctx = logging.WithModel(ctx, model)

	var span trace.Span
	if m.args.Core != nil {
		ctx, span = m.args.Core.MakeSpan(ctx, model, tracing.SpanKindLLM)
		span.SetAttributes(
			attribute.String("phare.llm.model", model),
			attribute.String("phare.agent.name", agent),
		)
	}

	start := time.Now()
	obs := &observedChunkStream{
		model:     model,
		agent:     agent,
		sessionID: logging.GetSessionID(ctx),
		args:      m.args,
		span:      span,
	}
	obs.finish = terminalObservation(func(err error) {
		obs.complete(err, time.Since(start))
	})

	stream, err := m.inner.CallModel(ctx, req)
	if err != nil {
		obs.finish(err)
		return nil, err
	}

	obs.inner = stream
	return obs, nil
}

// observedChunkStream forwards every chunk unchanged, accumulating token
// usage from chunks that carry it.
type observedChunkStream struct {
	inner     ChunkStream
	model     string
	agent     string
	sessionID string
	args      instrument.Args
	span      trace.Span
	finish    func(error)

	promptTokens     int64
	completionTokens int64
	costUSD          float64
}

func (s *observedChunkStream) Recv() (*Chunk, error) {
	chunk, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.finish(nil)
		} else {
			s.finish(err)
		}
		return chunk, err
	}

	if chunk != nil && chunk.Usage != nil {
		s.observeUsage(chunk.Usage)
	}
	return chunk, nil
}

// observeUsage increments token and cost counters for one usage report.
// Counters are incremental per chunk; totals land on the span and in the
// ledger when the stream finishes.
func (s *observedChunkStream) observeUsage(u *Usage) {
	s.promptTokens += u.PromptTokens
	s.completionTokens += u.CompletionTokens

	var cost float64
	if s.args.Pricing != nil {
		cost = s.args.Pricing.Cost(s.model, u.PromptTokens, u.CompletionTokens)
		s.costUSD += cost
	}

	if s.args.Metrics != nil {
		s.args.Metrics.RecordTokens(s.model, s.agent, u.PromptTokens, u.CompletionTokens)
		s.args.Metrics.RecordCost(s.model, s.agent, cost)
	}
}

// complete records the terminal observation for the call.
func (s *observedChunkStream) complete(err error, elapsed time.Duration) {
	if s.span != nil {
		s.span.SetAttributes(
			attribute.Int64("phare.llm.prompt_tokens", s.promptTokens),
			attribute.Int64("phare.llm.completion_tokens", s.completionTokens),
			attribute.Float64("phare.llm.cost_usd", s.costUSD),
		)
	}
	if s.args.Core != nil {
		s.args.Core.FinalizeSpan(s.span, err)
	}
	if s.args.Metrics != nil {
		s.args.Metrics.RecordModelCall(s.model, s.agent, statusOf(err), elapsed)
	}

	if s.args.Usage != nil && (s.promptTokens > 0 || s.completionTokens > 0) {
		rec := &usage.Record{
			SessionID:        s.sessionID,
			Agent:            s.agent,
			Model:            s.model,
			PromptTokens:     s.promptTokens,
			CompletionTokens: s.completionTokens,
			CostUSD:          s.costUSD,
		}
		if appendErr := s.args.Usage.Append(context.Background(), rec); appendErr != nil && s.args.Logger != nil {
			s.args.Logger.Warn("failed to record usage", "error", appendErr)
		}
	}
}
