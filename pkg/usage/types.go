package usage

import (
	"context"
	"time"
)

// Record is a single model call entry in the usage ledger.
type Record struct {
	// Time is when the call completed.
	Time time.Time

	// SessionID is the session the call belongs to.
	SessionID string

	// Agent is the agent that issued the call, if known.
	Agent string

	// Model is the model name.
	Model string

	// PromptTokens is the prompt token count.
	PromptTokens int64

	// CompletionTokens is the completion token count.
	CompletionTokens int64

	// CostUSD is the computed cost of the call in USD.
	CostUSD float64
}

// Totals aggregates usage over a set of records.
type Totals struct {
	// Records is the number of entries aggregated.
	Records int64

	// PromptTokens is the summed prompt token count.
	PromptTokens int64

	// CompletionTokens is the summed completion token count.
	CompletionTokens int64

	// CostUSD is the summed cost in USD.
	CostUSD float64
}

// Backend defines the interface for ledger persistence.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Append writes one record to the ledger.
	Append(ctx context.Context, rec *Record) error

	// SessionTotals aggregates the records of a single session.
	// Returns zero totals if the session has no records.
	SessionTotals(ctx context.Context, sessionID string) (*Totals, error)

	// TotalsSince aggregates all records at or after the given time.
	TotalsSince(ctx context.Context, since time.Time) (*Totals, error)

	// Prune removes records older than the given time.
	// Returns the number of records deleted.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	// The backend must not be used after Close.
	Close() error
}
