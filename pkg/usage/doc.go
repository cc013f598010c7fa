// Package usage provides a local ledger of per-call model usage.
//
// # Overview
//
// The usage package records one entry per model call (tokens and computed
// cost) and aggregates them per session or over time windows. Two backends
// are provided:
//
//   - Memory: Fast in-memory ledger (default, no persistence)
//   - SQLite: File-based persistence for single-instance deployments
//
// # Usage
//
//	backend, err := usage.NewBackend(cfg.Usage)
//
//	err = backend.Append(ctx, &usage.Record{
//	    SessionID:        "sess-123",
//	    Model:            "gemini-2.5-flash",
//	    PromptTokens:     1000,
//	    CompletionTokens: 500,
//	    CostUSD:          0.00155,
//	})
//
//	totals, err := backend.SessionTotals(ctx, "sess-123")
//
// # Retention
//
// Scheduler prunes records older than the configured retention window on
// a cron schedule, typically nightly.
//
// # Thread Safety
//
// All ledger backends are safe for concurrent use from multiple goroutines.
// Locking is handled internally by each backend.
package usage
