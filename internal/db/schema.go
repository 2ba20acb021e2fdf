package db

import (
	"context"
	"fmt"
)

// schema is applied idempotently at start-up; there is no migration tooling
// because the archive is a convenience store, not a system of record.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS extraction_runs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'running',
		targets INT NOT NULL DEFAULT 0,
		records INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS faculty_records (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES extraction_runs(id) ON DELETE CASCADE,
		university TEXT NOT NULL,
		department TEXT NOT NULL DEFAULT '',
		major TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		theme TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		retrieved_at TEXT NOT NULL DEFAULT '',
		lab TEXT NOT NULL DEFAULT '',
		tag TEXT NOT NULL DEFAULT '',
		evidence_path TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS faculty_records_run_idx ON faculty_records (run_id)`,
	`CREATE TABLE IF NOT EXISTS page_cache (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		url TEXT NOT NULL UNIQUE,
		html TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables when they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
