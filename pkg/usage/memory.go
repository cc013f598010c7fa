package usage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-memory storage.
// This is the default backend; all records are lost when the process exits.
type MemoryBackend struct {
	mu      sync.RWMutex
	records []*Record

	// maxEntries caps the ledger; the oldest records are dropped first.
	maxEntries int
}

// defaultMaxEntries bounds the in-memory ledger for long-lived processes.
const defaultMaxEntries = 100000

// NewMemoryBackend creates an in-memory ledger backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		maxEntries: defaultMaxEntries,
	}
}

// Append writes one record to the ledger.
func (m *MemoryBackend) Append(_ context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.Model == "" {
		return fmt.Errorf("record model cannot be empty")
	}

	stored := *rec
	if stored.Time.IsZero() {
		stored.Time = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, &stored)
	if len(m.records) > m.maxEntries {
		excess := len(m.records) - m.maxEntries
		m.records = m.records[excess:]
	}
	return nil
}

// SessionTotals aggregates the records of a single session.
func (m *MemoryBackend) SessionTotals(_ context.Context, sessionID string) (*Totals, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := &Totals{}
	for _, rec := range m.records {
		if rec.SessionID == sessionID {
			addRecord(totals, rec)
		}
	}
	return totals, nil
}

// TotalsSince aggregates all records at or after the given time.
func (m *MemoryBackend) TotalsSince(_ context.Context, since time.Time) (*Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := &Totals{}
	for _, rec := range m.records {
		if !rec.Time.Before(since) {
			addRecord(totals, rec)
		}
	}
	return totals, nil
}

// Prune removes records older than the given time.
func (m *MemoryBackend) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	deleted := 0
	for _, rec := range m.records {
		if rec.Time.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

// Len returns the number of records currently held.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

func addRecord(totals *Totals, rec *Record) {
	totals.Records++
	totals.PromptTokens += rec.PromptTokens
	totals.CompletionTokens += rec.CompletionTokens
	totals.CostUSD += rec.CostUSD
}
