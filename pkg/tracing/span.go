package tracing

import "strings"

// SpanKind classifies what a span represents in an agent workload.
// The kind is appended to the operation name, so a model call made by
// operation "chat" produces the span "chat.llm".
type SpanKind string

const (
	// SpanKindSession is the root span of a conversation or program run.
	SpanKindSession SpanKind = "session"

	// SpanKindAgent covers a full agent execution.
	SpanKindAgent SpanKind = "agent"

	// SpanKindLLM covers a single model call.
	SpanKindLLM SpanKind = "llm"

	// SpanKindTool covers a tool or function invocation.
	SpanKindTool SpanKind = "tool"

	// SpanKindWorkflow covers a multi-step orchestration.
	SpanKindWorkflow SpanKind = "workflow"

	// SpanKindTask covers a single unit of work inside a workflow.
	SpanKindTask SpanKind = "task"

	// SpanKindChain covers a composed sequence of calls.
	SpanKindChain SpanKind = "chain"

	// SpanKindGuardrail covers input or output guardrail evaluation.
	SpanKindGuardrail SpanKind = "guardrail"

	// SpanKindHTTP covers an outbound HTTP request.
	SpanKindHTTP SpanKind = "http"

	// SpanKindOperation is the generic kind for anything else.
	SpanKindOperation SpanKind = "operation"

	// SpanKindUnknown is used when a kind string cannot be parsed.
	SpanKindUnknown SpanKind = "unknown"
)

// ParseSpanKind converts a string into a SpanKind, falling back to
// SpanKindUnknown for unrecognized values.
func ParseSpanKind(s string) SpanKind {
	switch SpanKind(strings.ToLower(s)) {
	case SpanKindSession, SpanKindAgent, SpanKindLLM, SpanKindTool,
		SpanKindWorkflow, SpanKindTask, SpanKindChain, SpanKindGuardrail,
		SpanKindHTTP, SpanKindOperation:
		return SpanKind(strings.ToLower(s))
	default:
		return SpanKindUnknown
	}
}

// SpanName builds the canonical span name for an operation and kind.
func SpanName(operation string, kind SpanKind) string {
	return operation + "." + string(kind)
}

// EndState describes how a trace concluded. It is recorded on the session
// span so the backend can distinguish clean completions from failures and
// process exits.
type EndState string

const (
	// EndStateSuccess marks a trace that completed normally.
	EndStateSuccess EndState = "Success"

	// EndStateError marks a trace that ended because of a failure.
	EndStateError EndState = "Error"

	// EndStateShutdown marks a trace swept up by SDK shutdown rather
	// than ended by its owner.
	EndStateShutdown EndState = "Shutdown"

	// EndStateIndeterminate marks a trace whose outcome could not be
	// determined.
	EndStateIndeterminate EndState = "Indeterminate"

	// EndStateUnset is the zero value before a trace concludes.
	EndStateUnset EndState = "Unset"
)
