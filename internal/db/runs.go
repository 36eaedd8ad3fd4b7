package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/npa-sniper/internal/types"
)

// -----------------------------------------------------------------------------
// Ingest Run Methods
// -----------------------------------------------------------------------------

// CreateRun records the start of an ingest run and returns its ID
func (db *DB) CreateRun(ctx context.Context, command string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, command, status) VALUES ($1, $2, $3)`,
		id, command, string(types.RunStatusRunning),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun stores the final counters and status of an ingest run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, summary types.RunSummary, runErr error) error {
	var errMsg *string
	if runErr != nil {
		errMsg = nullIfEmpty(runErr.Error())
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE ingest_runs
		 SET status = $2, processed = $3, inserted = $4, updated = $5,
		     duplicates_skipped = $6, missing_url = $7, batches = $8,
		     error_message = $9, completed_at = NOW()
		 WHERE id = $1`,
		runID, string(summary.Status), summary.Processed, summary.Inserted, summary.Updated,
		summary.DuplicatesSkipped, summary.MissingURL, summary.Batches, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// ListRuns retrieves recent ingest runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, command, status, processed, inserted, updated, duplicates_skipped,
		        missing_url, batches, error_message, started_at, completed_at
		 FROM ingest_runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var r IngestRun
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &r.Processed, &r.Inserted, &r.Updated,
			&r.DuplicatesSkipped, &r.MissingURL, &r.Batches, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
