package pricing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_Reload(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "prices.yaml")
	if err := os.WriteFile(path, []byte("custom-model:\n  prompt: 1.0\n  completion: 1.0\n"), 0644); err != nil {
		t.Fatalf("failed to write pricing file: %v", err)
	}

	cfg := testConfig()
	cfg.Path = path
	table, err := NewTable(cfg)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	w, err := NewWatcher(path, table, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.debounce = 10 * time.Millisecond

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	updated := "custom-model:\n  prompt: 5.0\n  completion: 5.0\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to update pricing file: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		price, _ := table.Lookup("custom-model")
		if price.Prompt == 5.0 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("pricing table not reloaded, price = %+v", price)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "prices.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write pricing file: %v", err)
	}

	table, err := NewTable(testConfig())
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	w, err := NewWatcher(path, table, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("expected second Start to fail")
	}
}
