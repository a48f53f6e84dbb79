package queue

import (
	"context"
	"fmt"
	"time"
)

// ReclaimExpired returns in-flight tasks whose claim lease has expired back to
// their stage entry status. Run at daemon startup and periodically so a crashed
// worker cannot strand a task in in_progress forever. The attempt counter is
// left untouched; an interrupted execution is not a failure.
func (s *Store) ReclaimExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reclaim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(
		ctx,
		`SELECT id, stage FROM tasks
         WHERE status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at < ?`,
		StatusInProgress,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("query expired leases: %w", err)
	}
	type expired struct {
		id    string
		stage Stage
	}
	var found []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.id, &e.stage); err != nil {
			rows.Close()
			return 0, err
		}
		found = append(found, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := formatTime(time.Now())
	var reclaimed int64
	for _, e := range found {
		entry := e.stage.EntryStatus()
		if entry == "" {
			entry = StatusPending
		}
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, stage = NULL, claim_owner = NULL, lease_expires_at = NULL, updated_at = ?
             WHERE id = ? AND status = ?`,
			entry,
			now,
			e.id,
			StatusInProgress,
		)
		if err != nil {
			return 0, fmt.Errorf("reclaim task %s: %w", e.id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			continue
		}
		if err := appendEvent(ctx, tx, e.id, StatusInProgress, entry, "reclaimed expired lease"); err != nil {
			return 0, err
		}
		reclaimed += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reclaim: %w", err)
	}
	return reclaimed, nil
}

// RetryFailed moves failed tasks back to pending for reprocessing. With no ids
// every failed task is reset.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	return s.resetTerminal(ctx, StatusFailed, "retry requested", ids...)
}

// ResetErrored moves errored tasks back to pending. This is the operator
// escape hatch; the scheduler never resets error on its own.
func (s *Store) ResetErrored(ctx context.Context, ids ...string) (int64, error) {
	return s.resetTerminal(ctx, StatusError, "operator reset", ids...)
}

func (s *Store) resetTerminal(ctx context.Context, from Status, detail string, ids ...string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT id FROM tasks WHERE status = ?`
	args := []any{from}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query %s tasks: %w", from, err)
	}
	var matched []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		matched = append(matched, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := formatTime(time.Now())
	var reset int64
	for _, id := range matched {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, attempt_count = 0, not_before = NULL, error_message = NULL, updated_at = ?
             WHERE id = ? AND status = ?`,
			StatusPending,
			now,
			id,
			from,
		)
		if err != nil {
			return 0, fmt.Errorf("reset task %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			continue
		}
		if err := appendEvent(ctx, tx, id, from, StatusPending, detail); err != nil {
			return 0, err
		}
		reset += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reset: %w", err)
	}
	return reset, nil
}
