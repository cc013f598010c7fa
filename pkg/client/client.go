package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/instrument"
	"phare-hq/phare/pkg/pricing"
	"phare-hq/phare/pkg/telemetry/export"
	"phare-hq/phare/pkg/telemetry/health"
	"phare-hq/phare/pkg/telemetry/logging"
	"phare-hq/phare/pkg/telemetry/metrics"
	"phare-hq/phare/pkg/tracing"
	"phare-hq/phare/pkg/usage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// sessionHeader carries the current session ID on every export request.
const sessionHeader = "X-Phare-Session"

// Client is the assembled telemetry pipeline: tracing core, authenticated
// exporter, metrics, pricing, usage ledger, and the instrumentation
// manager. Build one with Init.
type Client struct {
	cfg    *config.Config
	logger *logging.Logger

	core         *tracing.Core
	authExporter *export.Exporter

	metrics       *metrics.Collector
	metricsServer *metrics.Server

	pricing      *pricing.Table
	priceWatcher *pricing.Watcher

	ledger    usage.Backend
	retention *usage.Scheduler

	manager *instrument.Manager

	// degraded is set when FailSafe swallowed an initialization error;
	// all operations become no-ops.
	degraded bool

	cancelBackground context.CancelFunc

	mu sync.Mutex
	// ownSessions tracks traces started through StartSession; the active
	// sessions gauge counts only these, not traces opened on the core
	// directly.
	ownSessions map[string]struct{}
	session     *tracing.TraceContext
	closed      bool
}

var (
	globalMu     sync.Mutex
	globalClient *Client

	// exitHookOnce guards the process-exit hook across re-initialization.
	exitHookOnce sync.Once
)

// Init builds a client from the supplied options and installs it as the
// process-wide instance. Initialization is idempotent: a second call
// returns the existing client.
//
// When the configuration enables FailSafe, initialization errors are
// logged and a degraded no-op client is returned instead.
func Init(opts ...Option) (*Client, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalClient != nil {
		return globalClient, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c, err := build(&o)
	if err != nil {
		return nil, err
	}

	globalClient = c
	c.registerExitHook()
	return c, nil
}

// Get returns the process-wide client, or nil before Init.
func Get() *Client {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalClient
}

// ResetForTesting discards the process-wide client without shutting it
// down. Intended for tests.
func ResetForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalClient = nil
}

func build(o *options) (*Client, error) {
	cfg, err := resolveConfig(o)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Writer:    o.logWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := assemble(cfg, logger, o)
	if err != nil {
		if cfg.Client.FailSafe {
			logger.Error("initialization failed, continuing without telemetry", "error", err)
			return &Client{cfg: cfg, logger: logger, degraded: true}, nil
		}
		return nil, err
	}
	return c, nil
}

func resolveConfig(o *options) (*config.Config, error) {
	switch {
	case o.cfg != nil:
		cfg := o.cfg
		config.ApplyDefaults(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	case o.configPath != "":
		return config.LoadConfigWithEnvOverrides(o.configPath)
	default:
		return config.LoadFromEnv()
	}
}

func assemble(cfg *config.Config, logger *logging.Logger, o *options) (*Client, error) {
	slogger := logger.Slog()

	c := &Client{cfg: cfg, logger: logger}

	// Exporter. An explicit exporter wins; otherwise the authenticated
	// OTLP exporter is built when an endpoint is configured.
	exporter := o.exporter
	if exporter == nil && cfg.Exporter.Endpoint != "" {
		tokens := o.tokens
		if tokens == nil {
			tokens = export.StaticToken("")
		}
		auth, err := export.New(cfg.Exporter, tokens, slogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		c.authExporter = auth
		exporter = auth
	}

	core, err := tracing.New(cfg, exporter, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing core: %w", err)
	}
	c.core = core

	c.metrics = metrics.NewCollector(&cfg.Metrics, o.registry)

	// Export outcomes feed the batch and span counters.
	if c.authExporter != nil && c.metrics != nil {
		c.authExporter.OnExport(c.metrics.RecordExport)
	}

	table, err := pricing.NewTable(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing table: %w", err)
	}
	c.pricing = table

	backgroundCtx, cancel := context.WithCancel(context.Background())
	c.cancelBackground = cancel

	if cfg.Pricing.Watch && cfg.Pricing.Path != "" {
		watcher, err := pricing.NewWatcher(cfg.Pricing.Path, table, slogger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create pricing watcher: %w", err)
		}
		if err := watcher.Start(backgroundCtx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to start pricing watcher: %w", err)
		}
		c.priceWatcher = watcher
	}

	if cfg.Usage.Enabled {
		ledger, err := usage.NewBackend(cfg.Usage)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create usage ledger: %w", err)
		}
		c.ledger = ledger

		c.retention = usage.NewScheduler(ledger, cfg.Usage, slogger)
		if err := c.retention.Start(backgroundCtx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to start usage retention: %w", err)
		}
	}

	// The standalone server mounts health probes alongside /metrics, so
	// it starts after the components the probes cover exist.
	if c.metrics.Enabled() && cfg.Metrics.ListenAddress != "" {
		c.metricsServer = metrics.NewServer(c.metrics, c.healthChecker(), slogger)
		c.metricsServer.Start()
	}

	c.manager = instrument.NewManager(cfg.Instrument, instrument.Args{
		Core:    core,
		Metrics: c.metrics,
		Pricing: table,
		Usage:   c.ledger,
		Logger:  slogger,
	}, slogger)

	// Background token prefetch warms the credential path without
	// blocking initialization; export degrades until it lands.
	if o.tokens != nil && (cfg.Client.PrefetchToken == nil || *cfg.Client.PrefetchToken) {
		go func() {
			ctx, cancel := context.WithTimeout(backgroundCtx, 30*time.Second)
			defer cancel()
			if _, err := o.tokens.Token(ctx); err != nil {
				slogger.Warn("token prefetch failed, export degraded until credential arrives", "error", err)
			}
		}()
	}

	if cfg.Client.AutoStartSession == nil || *cfg.Client.AutoStartSession {
		name := cfg.Client.SessionName
		if name == "" {
			name = "session"
		}
		if _, err := c.StartSession(context.Background(), name); err != nil {
			slogger.Warn("failed to auto-start session", "error", err)
		}
	}

	return c, nil
}

// healthChecker builds the probe checker for the standalone metrics
// server, covering the exporter cooldown state and the usage ledger.
func (c *Client) healthChecker() *health.Checker {
	checker := health.New(0)

	if c.authExporter != nil {
		exporter := c.authExporter
		checker.Register("exporter", func(ctx context.Context) error {
			if exporter.InCooldown() {
				return fmt.Errorf("export suppressed after auth rejection")
			}
			return nil
		})
	}

	if c.ledger != nil {
		ledger := c.ledger
		checker.Register("ledger", func(ctx context.Context) error {
			_, err := ledger.TotalsSince(ctx, time.Now())
			return err
		})
	}

	return checker
}

// registerExitHook installs, once per process, a signal handler that ends
// all active traces with the Shutdown end state and force-flushes.
func (c *Client) registerExitHook() {
	exitHookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			if current := Get(); current != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = current.Shutdown(ctx)
			}
		}()
	})
}

// StartSession begins a new session trace. Each session gets a fresh
// session ID which is attached to the root span and sent as a header on
// subsequent export batches.
func (c *Client) StartSession(ctx context.Context, name string, tags ...string) (*tracing.TraceContext, error) {
	if c.degraded || c.core == nil {
		return nil, nil
	}

	tc, err := c.core.StartTrace(ctx, name, tags...)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	tc.Span().SetAttributes(attribute.String(tracing.AttrSessionID, sessionID))
	if c.authExporter != nil {
		if err := c.authExporter.SetHeader(sessionHeader, sessionID); err != nil {
			c.logger.Warn("failed to set session header", "error", err)
		}
	}
	if c.metrics != nil {
		c.metrics.SessionStarted()
	}

	c.mu.Lock()
	c.session = tc
	if c.ownSessions == nil {
		c.ownSessions = make(map[string]struct{})
	}
	c.ownSessions[tc.TraceID()] = struct{}{}
	c.mu.Unlock()

	return tc, nil
}

// EndSession ends one session trace. Passing nil ends every active trace;
// the active sessions gauge only moves for traces this client started.
func (c *Client) EndSession(tc *tracing.TraceContext, state tracing.EndState) {
	if c.degraded || c.core == nil {
		return
	}

	if tc == nil {
		ended := c.releaseSessions(c.core.ActiveTraceIDs())
		if c.metrics != nil {
			for i := 0; i < ended; i++ {
				c.metrics.SessionEnded(string(state))
			}
		}
		c.core.EndTrace(nil, state)
		return
	}

	c.core.EndTrace(tc, state)

	c.mu.Lock()
	_, mine := c.ownSessions[tc.TraceID()]
	delete(c.ownSessions, tc.TraceID())
	if c.session == tc {
		c.session = nil
	}
	c.mu.Unlock()

	if mine && c.metrics != nil {
		c.metrics.SessionEnded(string(state))
	}
}

// releaseSessions drops tracking for the given trace IDs and returns how
// many of them were client-started sessions.
func (c *Client) releaseSessions(ids []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ended := 0
	for _, id := range ids {
		if _, ok := c.ownSessions[id]; ok {
			delete(c.ownSessions, id)
			ended++
		}
	}
	c.session = nil
	return ended
}

// Session returns the most recently started session, or nil.
func (c *Client) Session() *tracing.TraceContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Core exposes the tracing core for manual span creation.
func (c *Client) Core() *tracing.Core { return c.core }

// Metrics exposes the metrics collector.
func (c *Client) Metrics() *metrics.Collector { return c.metrics }

// Pricing exposes the model pricing table.
func (c *Client) Pricing() *pricing.Table { return c.pricing }

// Usage exposes the usage ledger, or nil when disabled.
func (c *Client) Usage() usage.Backend { return c.ledger }

// Manager exposes the instrumentation manager for registering targets.
func (c *Client) Manager() *instrument.Manager { return c.manager }

// Scan applies instrumentation to already-linked target libraries. Call it
// after registering loaders when ScanOnInit is enabled.
func (c *Client) Scan() {
	if c.degraded || c.manager == nil {
		return
	}
	if c.cfg.Instrument.ScanOnInit == nil || *c.cfg.Instrument.ScanOnInit {
		c.manager.Scan()
	}
}

// Flush forces queued spans out through the exporter.
func (c *Client) Flush(ctx context.Context) error {
	if c.degraded || c.core == nil {
		return nil
	}
	return c.core.Flush(ctx)
}

// Shutdown tears the pipeline down: active traces are ended with the
// Shutdown end state and flushed, background workers stop, and the ledger
// closes. Shutdown is idempotent.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.degraded {
		return nil
	}

	var firstErr error

	if c.core != nil {
		swept := c.releaseSessions(c.core.ActiveTraceIDs())
		if c.metrics != nil {
			for i := 0; i < swept; i++ {
				c.metrics.SessionEnded(string(tracing.EndStateShutdown))
			}
		}
		if err := c.core.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.cancelBackground != nil {
		c.cancelBackground()
	}
	if c.priceWatcher != nil {
		c.priceWatcher.Stop()
	}
	if c.retention != nil {
		c.retention.Stop()
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.ledger != nil {
		if err := c.ledger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.logger.Info("client shut down")
	return firstErr
}
