// Package client assembles the Phare telemetry pipeline for a host
// application.
//
// # Overview
//
// Init wires together the tracing core, the authenticated OTLP exporter,
// the Prometheus metrics surface, the pricing table, the usage ledger, and
// the instrumentation manager from one configuration:
//
//	c, err := client.Init(
//	    client.WithConfigFile("phare.yaml"),
//	    client.WithTokenProvider(tokens),
//	)
//	defer c.Shutdown(context.Background())
//
//	c.Manager().RegisterAgenticLibrary(agentkit.Loader(surface, "example.com/agentkit", "2.0.0"))
//	c.Scan()
//
// Init is idempotent: the first call builds the process-wide client and
// later calls return it. With FailSafe enabled, initialization failures
// degrade to a no-op client instead of an error, so telemetry problems
// never take down the host.
//
// # Sessions
//
// A session trace is started automatically when AutoStartSession is on,
// or explicitly with StartSession. Each session gets a fresh UUID which is
// attached to the root span and carried as a header on export batches.
// EndSession(nil, state) ends every active trace at once; traces still
// open at Shutdown are swept with the Shutdown end state.
//
// # Credentials
//
// The exporter pulls a bearer token from the injected TokenProvider on
// every batch, so rotation needs no coordination. NewHTTPTokenProvider
// fetches tokens from an HTTP endpoint with retries; PrefetchToken warms
// the path in the background without blocking initialization.
package client
