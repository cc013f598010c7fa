package usage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"phare-hq/phare/pkg/config"
)

// backendsUnderTest runs a subtest against each ledger backend.
func backendsUnderTest(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Failed to create sqlite backend: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	memory := NewMemoryBackend()
	t.Cleanup(func() { memory.Close() })

	return map[string]Backend{
		"memory": memory,
		"sqlite": sqlite,
	}
}

func TestBackend_AppendAndSessionTotals(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			records := []*Record{
				{SessionID: "sess-1", Model: "gemini-2.5-flash", PromptTokens: 1000, CompletionTokens: 500, CostUSD: 0.00155},
				{SessionID: "sess-1", Model: "gemini-2.5-flash", PromptTokens: 200, CompletionTokens: 100, CostUSD: 0.00031},
				{SessionID: "sess-2", Model: "gpt-4o", PromptTokens: 50, CompletionTokens: 30, CostUSD: 0.000425},
			}
			for _, rec := range records {
				if err := backend.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			totals, err := backend.SessionTotals(ctx, "sess-1")
			if err != nil {
				t.Fatalf("SessionTotals failed: %v", err)
			}
			if totals.Records != 2 {
				t.Errorf("Expected 2 records, got %d", totals.Records)
			}
			if totals.PromptTokens != 1200 {
				t.Errorf("Expected 1200 prompt tokens, got %d", totals.PromptTokens)
			}
			if totals.CompletionTokens != 600 {
				t.Errorf("Expected 600 completion tokens, got %d", totals.CompletionTokens)
			}
			if math.Abs(totals.CostUSD-0.00186) > 1e-9 {
				t.Errorf("Expected cost 0.00186, got %v", totals.CostUSD)
			}
		})
	}
}

func TestBackend_SessionTotals_Empty(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			totals, err := backend.SessionTotals(ctx, "no-such-session")
			if err != nil {
				t.Fatalf("SessionTotals failed: %v", err)
			}
			if totals.Records != 0 || totals.CostUSD != 0 {
				t.Errorf("Expected zero totals, got %+v", totals)
			}
		})
	}
}

func TestBackend_TotalsSince(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			old := &Record{
				Time:         now.Add(-48 * time.Hour),
				SessionID:    "sess-old",
				Model:        "gpt-4o",
				PromptTokens: 100,
				CostUSD:      0.01,
			}
			recent := &Record{
				Time:         now.Add(-time.Hour),
				SessionID:    "sess-new",
				Model:        "gpt-4o",
				PromptTokens: 200,
				CostUSD:      0.02,
			}
			for _, rec := range []*Record{old, recent} {
				if err := backend.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			totals, err := backend.TotalsSince(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("TotalsSince failed: %v", err)
			}
			if totals.Records != 1 {
				t.Errorf("Expected 1 record, got %d", totals.Records)
			}
			if totals.PromptTokens != 200 {
				t.Errorf("Expected 200 prompt tokens, got %d", totals.PromptTokens)
			}
		})
	}
}

func TestBackend_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for i, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
				rec := &Record{
					Time:      now.Add(-age),
					SessionID: "sess-prune",
					Model:     "gpt-4o",
					CostUSD:   float64(i),
				}
				if err := backend.Append(ctx, rec); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}

			deleted, err := backend.Prune(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Expected 2 deleted, got %d", deleted)
			}

			totals, err := backend.SessionTotals(ctx, "sess-prune")
			if err != nil {
				t.Fatalf("SessionTotals failed: %v", err)
			}
			if totals.Records != 1 {
				t.Errorf("Expected 1 surviving record, got %d", totals.Records)
			}
		})
	}
}

func TestBackend_AppendValidation(t *testing.T) {
	ctx := context.Background()

	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := backend.Append(ctx, nil); err == nil {
				t.Error("Expected error for nil record")
			}
			if err := backend.Append(ctx, &Record{SessionID: "s"}); err == nil {
				t.Error("Expected error for empty model")
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.UsageConfig
		wantErr bool
	}{
		{
			name: "memory",
			cfg:  config.UsageConfig{Backend: "memory"},
		},
		{
			name: "empty defaults to memory",
			cfg:  config.UsageConfig{},
		},
		{
			name: "sqlite",
			cfg:  config.UsageConfig{Backend: "sqlite"},
		},
		{
			name:    "unknown backend",
			cfg:     config.UsageConfig{Backend: "redis"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Backend == "sqlite" {
				tt.cfg.SQLitePath = filepath.Join(t.TempDir(), "usage.db")
			}

			backend, err := NewBackend(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend failed: %v", err)
			}
			backend.Close()
		})
	}
}

func TestSQLiteBackend_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage.db")

	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	rec := &Record{SessionID: "sess-1", Model: "gpt-4o", PromptTokens: 10, CostUSD: 0.001}
	if err := backend.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify the record survived.
	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to reopen backend: %v", err)
	}
	defer reopened.Close()

	totals, err := reopened.SessionTotals(ctx, "sess-1")
	if err != nil {
		t.Fatalf("SessionTotals failed: %v", err)
	}
	if totals.Records != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", totals.Records)
	}
}

func TestSQLiteBackend_CloseIdempotent(t *testing.T) {
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
}
