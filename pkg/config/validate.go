package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "exporter.endpoint").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateExporter(&cfg.Exporter)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validatePricing(&cfg.Pricing)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateExporter validates exporter configuration.
func validateExporter(cfg *ExporterConfig) []FieldError {
	var errs []FieldError

	// Endpoint is optional; tracing runs locally without one. When set
	// it must be an http or https URL.
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "exporter.endpoint",
				Message: "must be a valid http or https URL",
			})
		}
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "exporter.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxQueueSize < 0 {
		errs = append(errs, FieldError{
			Field:   "exporter.max_queue_size",
			Message: "queue size must be non-negative",
		})
	}
	if cfg.ScheduleDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "exporter.schedule_delay",
			Message: "schedule delay must be positive",
		})
	}
	if cfg.AuthFailureCooldown < 0 {
		errs = append(errs, FieldError{
			Field:   "exporter.auth_failure_cooldown",
			Message: "cooldown must be positive",
		})
	}

	return errs
}

// validateMetrics validates metrics configuration.
func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if cfg.Path != "" && !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "metrics.path",
			Message: "path must start with /",
		})
	}
	for _, b := range cfg.DurationBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   "metrics.duration_buckets",
				Message: "bucket boundaries must be positive",
			})
			break
		}
	}

	return errs
}

// validatePricing validates pricing configuration.
func validatePricing(cfg *PricingConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultPrompt < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.default_prompt",
			Message: "price must be non-negative",
		})
	}
	if cfg.DefaultCompletion < 0 {
		errs = append(errs, FieldError{
			Field:   "pricing.default_completion",
			Message: "price must be non-negative",
		})
	}
	if cfg.Watch && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "pricing.watch",
			Message: "watch requires pricing.path to be set",
		})
	}

	return errs
}

// validateUsage validates usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "", "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("unknown backend %q (expected memory or sqlite)", cfg.Backend),
		})
	}
	if cfg.Enabled && cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite_path",
			Message: "path is required for the sqlite backend",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "usage.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateLogging validates logging configuration.
func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q (expected debug, info, warn, or error)", cfg.Level),
		})
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q (expected json or text)", cfg.Format),
		})
	}

	return errs
}
