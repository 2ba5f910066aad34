package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
)

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS funnels (
				id           TEXT PRIMARY KEY,
				title        TEXT NOT NULL DEFAULT '',
				description  TEXT NOT NULL DEFAULT '',
				config       JSONB NOT NULL,
				is_published BOOLEAN NOT NULL DEFAULT FALSE,
				created_at   TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS leads (
				id         TEXT PRIMARY KEY,
				funnel_id  TEXT NOT NULL REFERENCES funnels(id) ON DELETE CASCADE,
				name       TEXT NOT NULL DEFAULT '',
				email      TEXT NOT NULL DEFAULT '',
				phone      TEXT NOT NULL DEFAULT '',
				subscribed BOOLEAN NOT NULL DEFAULT FALSE,
				answers    JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_leads_funnel ON leads(funnel_id, created_at DESC);
		`,
	}
}

// migrate applies pending schema versions in order, each in its own transaction.
func migrate(ctx context.Context, logger *slog.Logger, db *sql.DB, steps map[int]string) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to query current schema version: %w", err)
	}

	versions := make([]int, 0, len(steps))
	for v := range steps {
		if v > current {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)

	for _, v := range versions {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, steps[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		logger.InfoContext(ctx, "applied migration", "version", v)
	}
	return nil
}
