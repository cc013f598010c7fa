package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPTokenConfig configures an HTTP-backed token provider.
type HTTPTokenConfig struct {
	// URL is the token endpoint. The endpoint must answer with a JSON
	// body containing an "access_token" field.
	URL string

	// Headers are sent with every token request (e.g. a refresh secret).
	Headers map[string]string

	// Timeout bounds one token request including retries.
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the retry budget per fetch.
	// Default: 3
	MaxRetries int
}

// HTTPTokenProvider fetches a bearer token from an HTTP endpoint on every
// call. Tokens are deliberately not cached so mid-process credential
// rotation takes effect on the next export batch.
type HTTPTokenProvider struct {
	cfg    HTTPTokenConfig
	client *retryablehttp.Client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// NewHTTPTokenProvider creates a token provider for the given endpoint.
func NewHTTPTokenProvider(cfg HTTPTokenConfig) (*HTTPTokenProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("token endpoint URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &HTTPTokenProvider{cfg: cfg, client: rc}, nil
}

// Token fetches a fresh bearer token.
func (p *HTTPTokenProvider) Token(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	for name, value := range p.cfg.Headers {
		req.Header.Set(name, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return tr.AccessToken, nil
}
