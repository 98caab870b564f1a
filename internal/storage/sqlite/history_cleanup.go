package sqlite

import (
	"context"
	"fmt"
	"time"
)

// CleanupCounts reports what a history cleanup removed, or would remove
// in dry-run mode.
type CleanupCounts struct {
	AttemptsDeleted int
	EventsDeleted   int
}

// CleanupHistory deletes attempts started before cutoff together with
// their events, then events older than cutoff whose attempt is gone.
// Deletions are batched (batchSize rows per statement).
func (s *SQLiteStorage) CleanupHistory(ctx context.Context, cutoff time.Time, batchSize int, dryRun bool) (*CleanupCounts, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1")
	}
	ms := toMillis(cutoff)
	counts := &CleanupCounts{}

	if dryRun {
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM publish_attempts WHERE started_at < ?`, ms,
		).Scan(&counts.AttemptsDeleted)
		if err != nil {
			return nil, fmt.Errorf("failed to count old attempts: %w", err)
		}
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM workflow_events
			WHERE attempt_id IN (SELECT id FROM publish_attempts WHERE started_at < ?)
			OR (timestamp < ? AND attempt_id NOT IN (SELECT id FROM publish_attempts))
		`, ms, ms).Scan(&counts.EventsDeleted)
		if err != nil {
			return nil, fmt.Errorf("failed to count old events: %w", err)
		}
		return counts, nil
	}

	// Events first so a crash between batches never leaves events behind
	// whose attempt still exists.
	deleted, err := s.deleteBatched(ctx, `
		DELETE FROM workflow_events
		WHERE id IN (
			SELECT e.id FROM workflow_events e
			JOIN publish_attempts a ON a.id = e.attempt_id
			WHERE a.started_at < ?
			LIMIT ?
		)
	`, ms, batchSize)
	counts.EventsDeleted += deleted
	if err != nil {
		return counts, fmt.Errorf("failed to delete events of old attempts: %w", err)
	}

	deleted, err = s.deleteBatched(ctx, `
		DELETE FROM publish_attempts
		WHERE id IN (
			SELECT id FROM publish_attempts
			WHERE started_at < ?
			ORDER BY started_at ASC
			LIMIT ?
		)
	`, ms, batchSize)
	counts.AttemptsDeleted += deleted
	if err != nil {
		return counts, fmt.Errorf("failed to delete old attempts: %w", err)
	}

	deleted, err = s.deleteBatched(ctx, `
		DELETE FROM workflow_events
		WHERE id IN (
			SELECT id FROM workflow_events
			WHERE timestamp < ?
			AND attempt_id NOT IN (SELECT id FROM publish_attempts)
			ORDER BY timestamp ASC
			LIMIT ?
		)
	`, ms, batchSize)
	counts.EventsDeleted += deleted
	if err != nil {
		return counts, fmt.Errorf("failed to delete orphaned events: %w", err)
	}

	return counts, nil
}

// deleteBatched runs query (cutoff, limit) until a batch removes fewer
// than batchSize rows.
func (s *SQLiteStorage) deleteBatched(ctx context.Context, query string, cutoff int64, batchSize int) (int, error) {
	total := 0
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		result, err := s.db.ExecContext(ctx, query, cutoff, batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to execute delete: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += int(rowsAffected)

		if rowsAffected < int64(batchSize) {
			return total, nil
		}
	}
}
