package agentkit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"phare-hq/phare/pkg/instrument"
	"phare-hq/phare/pkg/telemetry/logging"
	"phare-hq/phare/pkg/tracing"
)

// wrapToolFunc observes the tool invocation boundary. The tool name comes
// from the tool argument, the owning agent from the tool context, falling
// back to the caller's context. The wrapped function's result and error
// pass through unchanged.
func wrapToolFunc(inner ToolFunc, args instrument.Args) ToolFunc {
	return func(ctx context.Context, tool Tool, toolArgs map[string]any, tc *ToolContext) (any, error) {
		name := tool.Name
		if name == "" {
			name = unknownName
		}
		agent := unknownName
		if tc != nil && tc.Agent != "" {
			agent = tc.Agent
		} else if a := logging.GetAgent(ctx); a != "" {
			agent = a
		}
		ctx = logging.WithTool(ctx, name)

		var span trace.Span
		if args.Core != nil {
			ctx, span = args.Core.MakeSpan(ctx, name, tracing.SpanKindTool)
			span.SetAttributes(
				attribute.String("phare.tool.name", name),
				attribute.String("phare.agent.name", agent),
			)
		}

		start := time.Now()
		result, err := inner(ctx, tool, toolArgs, tc)

		if args.Core != nil {
			args.Core.FinalizeSpan(span, err)
		}
		if args.Metrics != nil {
			args.Metrics.RecordToolCall(name, agent, statusOf(err), time.Since(start))
		}

		return result, err
	}
}
