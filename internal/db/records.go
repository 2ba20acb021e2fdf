package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/gradscout/internal/types"
)

// SaveRecords batch-inserts a run's records.
func (db *DB) SaveRecords(ctx context.Context, runID uuid.UUID, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO faculty_records
			 (run_id, university, department, major, name, theme, link, source_url, retrieved_at, lab, tag, evidence_path)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, r.University, r.Department, r.Major, r.Name, r.Theme, r.Link,
			r.SourceURL, r.RetrievedAt, r.Lab, r.Tag, r.EvidencePath,
		)
	}
	br := db.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
	}
	return nil
}

// ListRecords retrieves a run's records in insertion order.
func (db *DB) ListRecords(ctx context.Context, runID uuid.UUID) ([]types.Record, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT university, department, major, name, theme, link, source_url, retrieved_at, lab, tag, evidence_path
		 FROM faculty_records WHERE run_id = $1 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(&r.University, &r.Department, &r.Major, &r.Name, &r.Theme,
			&r.Link, &r.SourceURL, &r.RetrievedAt, &r.Lab, &r.Tag, &r.EvidencePath); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.RunID = runID.String()
		out = append(out, r)
	}
	return out, nil
}
