package export

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"phare-hq/phare/pkg/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/protobuf/proto"
)

var (
	// ErrAuthenticationFailed is returned when the collector rejects the
	// export credential with 401 or 403.
	ErrAuthenticationFailed = errors.New("collector rejected credentials")

	// ErrExportCooldown is returned when an export is suppressed because
	// a recent authentication failure put the exporter in cooldown.
	ErrExportCooldown = errors.New("export suppressed during auth failure cooldown")

	// ErrProtectedHeader is returned by SetHeader for reserved names.
	ErrProtectedHeader = errors.New("header is protected")
)

const userAgent = "phare-go/0.1.0"

// Export outcome labels reported to the OnExport callback.
const (
	StatusSuccess     = "success"
	StatusAuthFailure = "auth_failure"
	StatusCooldown    = "cooldown"
	StatusError       = "error"
)

// Exporter is an OTLP/HTTP span exporter that injects a bearer credential
// into every request. The credential is fetched from a TokenProvider per
// batch, so short-lived tokens stay fresh without restarting the pipeline.
//
// After the collector answers 401 or 403 the exporter enters a cooldown
// during which ExportSpans returns ErrExportCooldown without touching the
// network. This keeps a revoked credential from hammering the collector.
//
// Exporter implements go.opentelemetry.io/otel/sdk/trace.SpanExporter.
type Exporter struct {
	endpoint string
	client   *http.Client
	tokens   TokenProvider
	cooldown time.Duration
	logger   *slog.Logger

	headerMu sync.RWMutex
	headers  map[string]string

	authMu          sync.Mutex
	lastAuthFailure time.Time

	cbMu     sync.RWMutex
	onExport func(status string, spans int)

	stopped atomic.Bool
}

var _ sdktrace.SpanExporter = (*Exporter)(nil)

// New creates an authenticated exporter from the exporter configuration.
// tokens may be nil, in which case requests carry no Authorization header.
func New(cfg config.ExporterConfig, tokens TokenProvider, logger *slog.Logger) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("exporter endpoint is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "export")

	filtered, dropped := FilterHeaders(cfg.Headers)
	if len(dropped) > 0 {
		logger.Warn("dropped protected headers from exporter config", "headers", dropped)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Exporter{
		endpoint: cfg.Endpoint,
		client:   client,
		tokens:   tokens,
		cooldown: cfg.AuthFailureCooldown,
		logger:   logger,
		headers:  filtered,
	}, nil
}

// SetHeader sets or replaces a static header sent with every export.
// An empty value removes the header. Protected names are rejected with
// ErrProtectedHeader. Safe for concurrent use; this is how callers rotate
// a session correlation header mid-run.
func (e *Exporter) SetHeader(name, value string) error {
	if IsProtectedHeader(name) {
		return fmt.Errorf("%w: %s", ErrProtectedHeader, name)
	}

	e.headerMu.Lock()
	defer e.headerMu.Unlock()
	if value == "" {
		delete(e.headers, name)
		return nil
	}
	e.headers[name] = value
	return nil
}

// OnExport registers a callback invoked after every export attempt with
// the outcome label (StatusSuccess, StatusAuthFailure, StatusCooldown or
// StatusError) and the batch size. The metrics collector hooks in here.
func (e *Exporter) OnExport(fn func(status string, spans int)) {
	e.cbMu.Lock()
	e.onExport = fn
	e.cbMu.Unlock()
}

func (e *Exporter) report(status string, spans int) {
	e.cbMu.RLock()
	fn := e.onExport
	e.cbMu.RUnlock()
	if fn != nil {
		fn(status, spans)
	}
}

// ExportSpans serializes spans to OTLP protobuf and posts them to the
// collector with a freshly fetched bearer credential.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.stopped.Load() || len(spans) == 0 {
		return nil
	}
	if e.inCooldown() {
		e.logger.Debug("export suppressed", "reason", "auth failure cooldown")
		e.report(StatusCooldown, len(spans))
		return ErrExportCooldown
	}

	var token string
	if e.tokens != nil {
		var err error
		token, err = e.tokens.Token(ctx)
		if err != nil {
			e.report(StatusError, len(spans))
			return fmt.Errorf("failed to fetch auth token: %w", err)
		}
	}

	body, err := proto.Marshal(buildRequest(spans))
	if err != nil {
		e.report(StatusError, len(spans))
		return fmt.Errorf("failed to marshal spans: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		e.report(StatusError, len(spans))
		return fmt.Errorf("failed to build export request: %w", err)
	}

	e.headerMu.RLock()
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}
	e.headerMu.RUnlock()

	// SDK-owned headers are written last so nothing can shadow them.
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.report(StatusError, len(spans))
		return fmt.Errorf("export request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// A valid credential ends any prior cooldown immediately.
		e.clearAuthFailure()
		e.report(StatusSuccess, len(spans))
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.recordAuthFailure()
		e.logger.Warn("collector rejected credentials",
			"status", resp.StatusCode,
			"cooldown", e.cooldown,
		)
		e.report(StatusAuthFailure, len(spans))
		return fmt.Errorf("%w: status %d", ErrAuthenticationFailed, resp.StatusCode)
	default:
		e.report(StatusError, len(spans))
		return fmt.Errorf("export failed with status %d", resp.StatusCode)
	}
}

// Shutdown stops the exporter. Further ExportSpans calls are no-ops.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.stopped.Store(true)
	e.client.CloseIdleConnections()
	return nil
}

// InCooldown reports whether exports are currently suppressed after an
// auth rejection. Health probes use this to surface a degraded exporter.
func (e *Exporter) InCooldown() bool {
	return e.inCooldown()
}

// inCooldown reports whether the last auth failure is still fresh.
func (e *Exporter) inCooldown() bool {
	if e.cooldown <= 0 {
		return false
	}
	e.authMu.Lock()
	defer e.authMu.Unlock()
	if e.lastAuthFailure.IsZero() {
		return false
	}
	return time.Since(e.lastAuthFailure) < e.cooldown
}

// recordAuthFailure starts (or restarts) the cooldown window.
func (e *Exporter) recordAuthFailure() {
	e.authMu.Lock()
	defer e.authMu.Unlock()
	e.lastAuthFailure = time.Now()
}

// clearAuthFailure resets the cooldown after a successful export.
func (e *Exporter) clearAuthFailure() {
	e.authMu.Lock()
	defer e.authMu.Unlock()
	e.lastAuthFailure = time.Time{}
}
