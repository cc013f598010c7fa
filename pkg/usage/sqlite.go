package usage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// It is suitable for single-instance deployments where the ledger must
// survive restarts. The database uses a write-ahead log for better
// concurrent read performance.
type SQLiteBackend struct {
	db        *sql.DB
	dbPath    string
	mu        sync.RWMutex
	closeOnce sync.Once

	appendStmt        *sql.Stmt
	sessionTotalsStmt *sql.Stmt
	totalsSinceStmt   *sql.Stmt
	pruneStmt         *sql.Stmt
}

// NewSQLiteBackend opens or creates a SQLite ledger at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:     db,
		dbPath: dbPath,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

// initSchema creates the ledger schema if it doesn't exist.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		agent TEXT,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		cost_usd REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_usage_session ON usage_records(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (recorded_at, session_id, agent, model, prompt_tokens, completion_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.sessionTotalsStmt, err = s.db.Prepare(`
		SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_records
		WHERE session_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session totals statement: %w", err)
	}

	s.totalsSinceStmt, err = s.db.Prepare(`
		SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_records
		WHERE recorded_at >= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare totals statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM usage_records
		WHERE recorded_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Append writes one record to the ledger.
func (s *SQLiteBackend) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.Model == "" {
		return fmt.Errorf("record model cannot be empty")
	}

	recordedAt := rec.Time
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.appendStmt.ExecContext(ctx,
		recordedAt.UnixMilli(),
		rec.SessionID,
		rec.Agent,
		rec.Model,
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.CostUSD,
	)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// SessionTotals aggregates the records of a single session.
func (s *SQLiteBackend) SessionTotals(ctx context.Context, sessionID string) (*Totals, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanTotals(s.sessionTotalsStmt.QueryRowContext(ctx, sessionID))
}

// TotalsSince aggregates all records at or after the given time.
func (s *SQLiteBackend) TotalsSince(ctx context.Context, since time.Time) (*Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanTotals(s.totalsSinceStmt.QueryRowContext(ctx, since.UnixMilli()))
}

// Prune removes records older than the given time.
func (s *SQLiteBackend) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases the database. Close is idempotent.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.appendStmt, s.sessionTotalsStmt, s.totalsSinceStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func scanTotals(row *sql.Row) (*Totals, error) {
	totals := &Totals{}
	err := row.Scan(&totals.Records, &totals.PromptTokens, &totals.CompletionTokens, &totals.CostUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to scan totals: %w", err)
	}
	return totals, nil
}
