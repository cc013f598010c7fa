package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention PHARE_SECTION_FIELD (e.g., PHARE_EXPORTER_ENDPOINT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds configuration from defaults and environment variables
// alone, with no configuration file. This is the path used by applications
// that embed Phare as a library and configure it through the environment.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format PHARE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Service overrides
	if val := os.Getenv("PHARE_SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := os.Getenv("PHARE_SERVICE_ENVIRONMENT"); val != "" {
		cfg.Service.Environment = val
	}

	// Exporter overrides
	if val := os.Getenv("PHARE_EXPORTER_ENDPOINT"); val != "" {
		cfg.Exporter.Endpoint = val
	}
	if val := os.Getenv("PHARE_EXPORTER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exporter.Timeout = d
		}
	}
	if val := os.Getenv("PHARE_EXPORTER_MAX_QUEUE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Exporter.MaxQueueSize = i
		}
	}
	if val := os.Getenv("PHARE_EXPORTER_SCHEDULE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exporter.ScheduleDelay = d
		}
	}
	if val := os.Getenv("PHARE_EXPORTER_FLUSH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exporter.FlushInterval = d
		}
	}
	if val := os.Getenv("PHARE_EXPORTER_AUTH_FAILURE_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exporter.AuthFailureCooldown = d
		}
	}
	if val := os.Getenv("PHARE_EXPORTER_INSECURE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Exporter.Insecure = b
		}
	}

	// Client overrides
	if val := os.Getenv("PHARE_CLIENT_AUTO_START_SESSION"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Client.AutoStartSession = boolPtr(b)
		}
	}
	if val := os.Getenv("PHARE_CLIENT_SESSION_NAME"); val != "" {
		cfg.Client.SessionName = val
	}
	if val := os.Getenv("PHARE_CLIENT_FAIL_SAFE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Client.FailSafe = b
		}
	}
	if val := os.Getenv("PHARE_CLIENT_PREFETCH_TOKEN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Client.PrefetchToken = boolPtr(b)
		}
	}
	if val := os.Getenv("PHARE_CLIENT_DEFAULT_TAGS"); val != "" {
		tags := strings.Split(val, ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}
		cfg.Client.DefaultTags = tags
	}

	// Metrics overrides
	if val := os.Getenv("PHARE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = boolPtr(b)
		}
	}
	if val := os.Getenv("PHARE_METRICS_PATH"); val != "" {
		cfg.Metrics.Path = val
	}
	if val := os.Getenv("PHARE_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}

	// Pricing overrides
	if val := os.Getenv("PHARE_PRICING_PATH"); val != "" {
		cfg.Pricing.Path = val
	}
	if val := os.Getenv("PHARE_PRICING_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Pricing.Watch = b
		}
	}

	// Usage overrides
	if val := os.Getenv("PHARE_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = b
		}
	}
	if val := os.Getenv("PHARE_USAGE_BACKEND"); val != "" {
		cfg.Usage.Backend = val
	}
	if val := os.Getenv("PHARE_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLitePath = val
	}
	if val := os.Getenv("PHARE_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.RetentionDays = i
		}
	}

	// Instrument overrides
	if val := os.Getenv("PHARE_INSTRUMENT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Instrument.Enabled = boolPtr(b)
		}
	}
	if val := os.Getenv("PHARE_INSTRUMENT_DISABLED"); val != "" {
		names := strings.Split(val, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		cfg.Instrument.Disabled = names
	}
	if val := os.Getenv("PHARE_INSTRUMENT_SCAN_ON_INIT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Instrument.ScanOnInit = boolPtr(b)
		}
	}

	// Logging overrides
	if val := os.Getenv("PHARE_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("PHARE_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}
