package export

import "context"

// TokenProvider supplies a bearer credential for export requests.
// The exporter calls Token once per export batch, so providers are free to
// rotate credentials between batches. Implementations must be safe for
// concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to the TokenProvider interface.
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken returns a TokenProvider that always yields the same token.
// Useful for long-lived API keys and tests.
func StaticToken(token string) TokenProvider {
	return TokenProviderFunc(func(context.Context) (string, error) {
		return token, nil
	})
}
