// Package sqlite opens and migrates the record store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/ext/regexp"
)

func init() {
	// Expression compilation relies on the REGEXP operator for the
	// typed-comparison shape guards.
	sqlite3.AutoExtension(regexp.Register)
}

// Store wraps the SQLite connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path. Pragmas ride
// in the DSN so every pooled connection gets them, not just the first.
// case_sensitive_like keeps plain LIKE case-sensitive; case folding is
// always explicit in the queries this store serves.
func Open(path string) (*Store, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(wal)" +
		"&_pragma=synchronous(normal)" +
		"&_pragma=busy_timeout(30000)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=case_sensitive_like(1)"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying pool for the repositories.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (s *Store) Close() error { return s.db.Close() }

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Migrate creates the records schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			record_type    TEXT NOT NULL,
			identifier     TEXT NOT NULL,
			name           TEXT,
			workflow_state TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,
			metadata       TEXT NOT NULL DEFAULT '{}',
			project_id     INTEGER,
			project_name   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_type ON records (record_type)`,
		`CREATE INDEX IF NOT EXISTS idx_records_type_updated ON records (record_type, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_type_identifier ON records (record_type, identifier)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate records schema: %w", err)
		}
	}
	return nil
}
