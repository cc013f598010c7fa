package usage

import (
	"fmt"

	"phare-hq/phare/pkg/config"
)

// NewBackend creates the ledger backend selected by the configuration.
// Unknown backend names are an error; an empty name selects memory.
func NewBackend(cfg config.UsageConfig) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "data/usage.db"
		}
		return NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown usage backend %q", cfg.Backend)
	}
}
