// Package export implements the authenticated OTLP span exporter.
//
// # Overview
//
// Spans leave the process through an OTLP/HTTP POST carrying a bearer
// credential. The credential comes from a TokenProvider and is fetched per
// batch, so rotating tokens never requires rebuilding the pipeline.
//
// Static headers from configuration ride along on every request, but a set
// of protected names (authorization, content-type, user-agent, and other
// credential-bearing headers) is owned by the SDK: user values for those
// are dropped at construction and rejected by SetHeader.
//
// # Auth failure cooldown
//
// When the collector answers 401 or 403, the exporter records the failure
// and suppresses all exports for a cooldown window (default 60s). During
// the window ExportSpans returns ErrExportCooldown without a network call.
// This keeps a revoked or expired credential from turning every batch into
// a doomed request.
//
// # Usage
//
//	exporter, err := export.New(cfg.Exporter, export.TokenProviderFunc(fetchToken), logger)
//	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
package export
