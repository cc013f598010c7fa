package client

import (
	"io"

	"phare-hq/phare/pkg/config"
	"phare-hq/phare/pkg/telemetry/export"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// options collects everything Init accepts.
type options struct {
	cfg        *config.Config
	configPath string
	tokens     export.TokenProvider
	exporter   sdktrace.SpanExporter
	registry   *prometheus.Registry
	logWriter  io.Writer
}

// Option customizes client initialization.
type Option func(*options)

// WithConfig supplies a configuration directly, bypassing file loading.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from a YAML file, with environment
// variable overrides applied on top.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithTokenProvider supplies the bearer-credential source for the span
// exporter. The provider is called once per export batch.
func WithTokenProvider(tokens export.TokenProvider) Option {
	return func(o *options) { o.tokens = tokens }
}

// WithStaticToken is shorthand for a fixed API key credential.
func WithStaticToken(token string) Option {
	return func(o *options) { o.tokens = export.StaticToken(token) }
}

// WithExporter replaces the authenticated OTLP exporter, mainly for tests.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exporter }
}

// WithMetricsRegistry supplies a Prometheus registry; by default the
// client creates its own.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithLogWriter redirects the client's log output, mainly for tests.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}
