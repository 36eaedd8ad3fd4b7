package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/npa-sniper/internal/types"
)

// -----------------------------------------------------------------------------
// Feed Snapshot Methods
// -----------------------------------------------------------------------------

// LatestSnapshots returns the most recent snapshot of every (feed type, category) partition.
func (db *DB) LatestSnapshots(ctx context.Context) (map[types.SnapshotKey]types.FeedSnapshot, error) {
	rows, err := db.pool.Query(ctx,
		`WITH ranked AS (
		     SELECT feed_type, category, total_records, page_count, checked_at,
		            ROW_NUMBER() OVER (PARTITION BY feed_type, category ORDER BY checked_at DESC) AS rk
		     FROM bam_feed_snapshot
		 )
		 SELECT feed_type, category, COALESCE(total_records, 0), COALESCE(page_count, 0), checked_at
		 FROM ranked
		 WHERE rk = 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	defer rows.Close()

	latest := make(map[types.SnapshotKey]types.FeedSnapshot)
	for rows.Next() {
		var s types.FeedSnapshot
		var checkedAt *time.Time
		if err := rows.Scan(&s.FeedType, &s.Category, &s.TotalRecords, &s.PageCount, &checkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if checkedAt != nil {
			s.CheckedAt = checkedAt.UTC()
		}
		latest[s.Key()] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query latest snapshots: %w", err)
	}
	return latest, nil
}

// InsertSnapshots appends snapshot rows in one round trip. Zero CheckedAt values use the server clock.
func (db *DB) InsertSnapshots(ctx context.Context, snapshots []types.FeedSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		var checkedAt *time.Time
		if !s.CheckedAt.IsZero() {
			t := s.CheckedAt
			checkedAt = &t
		}
		batch.Queue(
			`INSERT INTO bam_feed_snapshot (feed_type, category, total_records, page_count, checked_at)
			 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
			s.FeedType, s.Category, s.TotalRecords, s.PageCount, checkedAt,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshots: %w", err)
	}
	return nil
}
