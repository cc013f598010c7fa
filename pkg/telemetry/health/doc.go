// Package health provides health probe endpoints for the telemetry
// pipeline.
//
// # Overview
//
// The health package exposes liveness and readiness handlers that the
// metrics server mounts alongside the Prometheus endpoint. Components
// register checks (exporter cooldown state, usage ledger reachability)
// and the readiness probe aggregates them.
//
// Telemetry health is advisory: a degraded pipeline is reported in the
// probe body, never as a failing status code, so the host application
// stays in rotation even when span export is down.
//
// # Usage
//
//	checker := health.New(0)
//	checker.Register("exporter", func(ctx context.Context) error {
//		if exporter.InCooldown() {
//			return errors.New("export suppressed after auth rejection")
//		}
//		return nil
//	})
//	mux.HandleFunc("/healthz", checker.LivenessHandler())
//	mux.HandleFunc("/readyz", checker.ReadinessHandler())
package health
