// Package sqlite keeps sessions and submissions in a local SQLite database.
// It backs the terminal runner and single-node deployments where no remote
// lead service is reachable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/funnel/internal/logging"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	funnel_id  TEXT NOT NULL DEFAULT '',
	origin     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_funnel ON submissions(funnel_id, created_at);
`

// DB is a SQLite database holding funnel data.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures the DB.
type Option func(*DB)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Open creates the database file (and its directory) if needed and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent sessions.
	conn.SetMaxOpenConns(1)

	d := &DB{db: conn, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "sqlite")

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	d.logger.DebugContext(ctx, "database ready", "path", path)
	return d, nil
}

// Sessions returns a ports.SessionStore view of the database.
func (d *DB) Sessions() *Sessions {
	return &Sessions{db: d.db}
}

// Submissions returns a ports.SubmissionStore view of the database.
func (d *DB) Submissions() *Submissions {
	return &Submissions{db: d.db, logger: d.logger}
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}
