// Package logging provides structured logging for the Phare SDK.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with session, trace, and agent metadata
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log structured data
//	logger.Info("llm call finished",
//	    "model", "gpt-4o-mini",
//	    "duration_ms", 1234,
//	)
//
//	// Create context-aware logger
//	ctx := logging.WithSessionID(ctx, "a1b2c3")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("processing")  // Includes session_id automatically
//
// Component loggers follow the convention
// logger.Slog().With("component", "tracing").
package logging
