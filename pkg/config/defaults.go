package config

import "time"

// Default values for configuration fields.
const (
	// Service defaults
	DefaultServiceName        = "phare-agent"
	DefaultServiceEnvironment = "dev"

	// Exporter defaults
	DefaultExporterTimeout     = 10 * time.Second
	DefaultExporterQueueSize   = 512
	DefaultScheduleDelay       = 5 * time.Second
	DefaultFlushInterval       = 1 * time.Second
	DefaultAuthFailureCooldown = 60 * time.Second

	// Client defaults
	DefaultSessionName = "session"

	// Metrics defaults
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "phare"
	DefaultMetricsSubsystem = "agent"

	// Pricing defaults (USD per million tokens)
	DefaultPromptPrice     = 1.0
	DefaultCompletionPrice = 2.0

	// Usage defaults
	DefaultUsageBackend       = "memory"
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultUsageRetentionDays = 30
	DefaultUsagePruneSchedule = "0 4 * * *"

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
)

// DefaultDurationBuckets are the histogram buckets for operation
// durations in seconds.
var DefaultDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Service defaults
	if cfg.Service.Name == "" {
		cfg.Service.Name = DefaultServiceName
	}
	if cfg.Service.Environment == "" {
		cfg.Service.Environment = DefaultServiceEnvironment
	}

	// Exporter defaults
	if cfg.Exporter.Timeout == 0 {
		cfg.Exporter.Timeout = DefaultExporterTimeout
	}
	if cfg.Exporter.MaxQueueSize == 0 {
		cfg.Exporter.MaxQueueSize = DefaultExporterQueueSize
	}
	if cfg.Exporter.ScheduleDelay == 0 {
		cfg.Exporter.ScheduleDelay = DefaultScheduleDelay
	}
	if cfg.Exporter.FlushInterval == 0 {
		cfg.Exporter.FlushInterval = DefaultFlushInterval
	}
	if cfg.Exporter.AuthFailureCooldown == 0 {
		cfg.Exporter.AuthFailureCooldown = DefaultAuthFailureCooldown
	}

	// Client defaults. True-by-default booleans use pointers so an
	// explicit false in the file is distinguishable from absence.
	if cfg.Client.AutoStartSession == nil {
		cfg.Client.AutoStartSession = boolPtr(true)
	}
	if cfg.Client.PrefetchToken == nil {
		cfg.Client.PrefetchToken = boolPtr(true)
	}
	if cfg.Client.SessionName == "" {
		cfg.Client.SessionName = DefaultSessionName
	}

	// Metrics defaults
	if cfg.Metrics.Enabled == nil {
		cfg.Metrics.Enabled = boolPtr(true)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	// Pricing defaults
	if cfg.Pricing.DefaultPrompt == 0 {
		cfg.Pricing.DefaultPrompt = DefaultPromptPrice
	}
	if cfg.Pricing.DefaultCompletion == 0 {
		cfg.Pricing.DefaultCompletion = DefaultCompletionPrice
	}

	// Usage defaults
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLitePath == "" {
		cfg.Usage.SQLitePath = DefaultUsageSQLitePath
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultUsageRetentionDays
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultUsagePruneSchedule
	}

	// Instrument defaults
	if cfg.Instrument.Enabled == nil {
		cfg.Instrument.Enabled = boolPtr(true)
	}
	if cfg.Instrument.ScanOnInit == nil {
		cfg.Instrument.ScanOnInit = boolPtr(true)
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
}

// DefaultConfig returns a Config populated entirely with defaults.
// This is the configuration used when no file is supplied, matching
// SDK-style initialization from environment variables alone.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func boolPtr(b bool) *bool { return &b }
