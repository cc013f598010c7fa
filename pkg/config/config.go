package config

import "time"

// Config is the root configuration structure for the Phare agent SDK.
// It contains all configuration sections for trace export, metrics,
// model pricing, usage accounting, instrumentation, and logging.
type Config struct {
	// Service identifies the instrumented service in exported telemetry.
	Service ServiceConfig `yaml:"service"`

	// Exporter contains configuration for the authenticated OTLP trace
	// exporter including endpoint, batching, and auth failure handling.
	Exporter ExporterConfig `yaml:"exporter"`

	// Client contains SDK client behavior configuration such as automatic
	// session start and fail-safe mode.
	Client ClientConfig `yaml:"client"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Pricing contains model pricing table configuration used for
	// per-call cost computation.
	Pricing PricingConfig `yaml:"pricing"`

	// Usage contains the local usage ledger configuration.
	Usage UsageConfig `yaml:"usage"`

	// Instrument contains dynamic instrumentation configuration.
	Instrument InstrumentConfig `yaml:"instrument"`

	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig identifies the instrumented service.
type ServiceConfig struct {
	// Name is the service name attached to exported spans.
	// Default: "phare-agent"
	Name string `yaml:"name"`

	// Environment is the deployment environment (e.g., "dev", "prod").
	// Default: "dev"
	Environment string `yaml:"environment"`
}

// ExporterConfig contains configuration for the authenticated trace exporter.
type ExporterConfig struct {
	// Endpoint is the OTLP/HTTP traces endpoint.
	// Example: "https://collector.example.gov/v1/traces"
	Endpoint string `yaml:"endpoint"`

	// Headers contains static headers attached to every export request.
	// Protected headers (authorization, content-type, and similar) are
	// filtered out; credentials come from the token provider instead.
	Headers map[string]string `yaml:"headers"`

	// Timeout is the maximum duration for a single export request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxQueueSize is the span batch processor queue capacity.
	// Default: 512
	MaxQueueSize int `yaml:"max_queue_size"`

	// ScheduleDelay is how long the batch processor waits before
	// exporting a non-full batch.
	// Default: 5s
	ScheduleDelay time.Duration `yaml:"schedule_delay"`

	// FlushInterval bounds how long ForceFlush waits during shutdown.
	// Default: 1s
	FlushInterval time.Duration `yaml:"flush_interval"`

	// AuthFailureCooldown is how long exports are suppressed after the
	// collector rejects credentials with 401 or 403.
	// Default: 60s
	AuthFailureCooldown time.Duration `yaml:"auth_failure_cooldown"`

	// Insecure disables TLS certificate verification for the endpoint.
	// Default: false
	Insecure bool `yaml:"insecure"`
}

// ClientConfig contains SDK client behavior configuration.
type ClientConfig struct {
	// AutoStartSession starts a session trace automatically when the
	// client initializes.
	// Default: true
	AutoStartSession *bool `yaml:"auto_start_session"`

	// SessionName is the operation name for the automatic session trace.
	// Default: "session"
	SessionName string `yaml:"session_name"`

	// FailSafe suppresses initialization panics and degrades to no-op
	// tracing when the backend is unreachable.
	// Default: false
	FailSafe bool `yaml:"fail_safe"`

	// PrefetchToken fetches an auth token in the background during
	// initialization so the first export does not pay the fetch latency.
	// Default: true
	PrefetchToken *bool `yaml:"prefetch_token"`

	// DefaultTags are attached to every trace started by this client.
	DefaultTags []string `yaml:"default_tags"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// ListenAddress is the address for the standalone metrics server.
	// Empty means no standalone server; use Handler with your own mux.
	// Default: ""
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric name prefix.
	// Default: "phare"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "agent"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for operation duration (seconds).
	// Default: [0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// PricingConfig contains model pricing table configuration.
type PricingConfig struct {
	// Path is the path to a YAML pricing table. Empty means the built-in
	// table is used.
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the pricing file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DefaultPrompt is the fallback prompt price per million tokens (USD)
	// for models absent from the table.
	// Default: 1.0
	DefaultPrompt float64 `yaml:"default_prompt"`

	// DefaultCompletion is the fallback completion price per million
	// tokens (USD) for models absent from the table.
	// Default: 2.0
	DefaultCompletion float64 `yaml:"default_completion"`
}

// UsageConfig contains the local usage ledger configuration.
type UsageConfig struct {
	// Enabled controls whether per-call usage records are written to the
	// local ledger.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the ledger storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite ledger database.
	// Default: "data/usage.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is the number of days to retain usage records.
	// 0 means keep records forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduling record pruning.
	// Default: "0 4 * * *" (daily at 4 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// InstrumentConfig contains dynamic instrumentation configuration.
type InstrumentConfig struct {
	// Enabled controls whether instrumentation attaches to loaded
	// libraries at all.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Disabled lists instrumentation targets to skip even when their
	// library is present (e.g., "openai", "agentkit").
	Disabled []string `yaml:"disabled"`

	// ScanOnInit scans already-loaded dependencies when the manager
	// starts, instrumenting anything that was imported before Phare.
	// Default: true
	ScanOnInit *bool `yaml:"scan_on_init"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}
