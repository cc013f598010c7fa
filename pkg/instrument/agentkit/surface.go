package agentkit

import "context"

// The agent framework being instrumented is reached through a Surface:
// the host application injects its framework adapters here at composition
// time, and instrumentation swaps them for observing wrappers. The
// framework itself needs no telemetry awareness; it only has to expose
// stable shapes at three boundaries.

// Invocation is one unit of agent work.
type Invocation struct {
	// Agent is the name of the agent being run.
	Agent string

	// SessionID is the owning session, if any.
	SessionID string

	// Input is the user input handed to the agent.
	Input string
}

// Event is one item of an agent run's output stream.
type Event struct {
	// Type discriminates event payloads (framework-defined).
	Type string

	// Content is the event payload.
	Content string
}

// EventStream is a pull-based stream of agent events. Recv returns io.EOF
// when the stream is exhausted, or the stream's first error unchanged.
type EventStream interface {
	Recv() (*Event, error)
}

// ModelRequest describes one model call.
type ModelRequest struct {
	// Model is the model name.
	Model string

	// Payload is the framework-defined request body.
	Payload any
}

// Usage carries token counts attached to a response chunk.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Chunk is one streamed piece of a model response.
type Chunk struct {
	// Content is the text delta.
	Content string

	// Usage is non-nil on chunks that carry usage metadata, typically
	// the final chunk of a stream.
	Usage *Usage
}

// ChunkStream is a pull-based stream of model response chunks. Recv
// returns io.EOF when the stream is exhausted, or the stream's first
// error unchanged.
type ChunkStream interface {
	Recv() (*Chunk, error)
}

// Tool identifies a callable tool.
type Tool struct {
	// Name is the tool's registered name.
	Name string

	// Description is the tool's registered description, if any.
	Description string
}

// ToolContext carries the calling context of a tool invocation.
type ToolContext struct {
	// Agent is the name of the agent invoking the tool.
	Agent string
}

// AgentRunner runs one unit of agent work, returning a stream of events.
type AgentRunner interface {
	Run(ctx context.Context, inv *Invocation) (EventStream, error)
}

// ModelCaller invokes the model, returning a stream of response chunks.
type ModelCaller interface {
	CallModel(ctx context.Context, req *ModelRequest) (ChunkStream, error)
}

// ToolFunc invokes a tool on behalf of an agent.
type ToolFunc func(ctx context.Context, tool Tool, args map[string]any, tc *ToolContext) (any, error)

// Surface is the injection point for the three instrumented boundaries.
// Members left nil are skipped with a warning; partial instrumentation is
// acceptable.
type Surface struct {
	Runner AgentRunner
	Model  ModelCaller
	Tool   ToolFunc
}
