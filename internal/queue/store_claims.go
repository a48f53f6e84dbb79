package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Claim attempts to take exclusive ownership of a task for a stage. The update
// is guarded on the stage's entry status, so of any number of concurrent claim
// attempts exactly one succeeds; losers observe ok=false and no mutation.
func (s *Store) Claim(ctx context.Context, task *Task, stage Stage, owner string, leaseUntil time.Time) (bool, error) {
	if task == nil {
		return false, fmt.Errorf("task is nil")
	}
	now := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
         SET status = ?, stage = ?, claim_owner = ?, lease_expires_at = ?, updated_at = ?
         WHERE id = ? AND status = ? AND (not_before IS NULL OR not_before <= ?)`,
		StatusInProgress,
		string(stage),
		owner,
		formatTime(leaseUntil),
		formatTime(now),
		task.ID,
		stage.EntryStatus(),
		formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("claim task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := appendEvent(ctx, tx, task.ID, stage.EntryStatus(), StatusInProgress, "claimed for "+string(stage)); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit claim: %w", err)
	}

	task.Status = StatusInProgress
	task.Stage = stage
	task.ClaimOwner = owner
	task.LeaseExpiresAt = &leaseUntil
	task.UpdatedAt = now.UTC()
	return true, nil
}

// Advance releases an owned task one step forward along the pipeline.
// Stage payload fields on the task (research/content/assembly/publish results)
// are persisted in the same statement; the attempt counter resets.
func (s *Store) Advance(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	next := task.Stage.DoneStatus()
	now := time.Now()

	return s.release(ctx, task, next, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, stage = NULL, attempt_count = 0, not_before = NULL,
                 claim_owner = NULL, lease_expires_at = NULL, error_message = NULL,
                 research_json = ?, content_json = ?, assembled_path = ?,
                 content_fingerprint = ?, published_url = ?, updated_at = ?
             WHERE id = ? AND status = ? AND claim_owner = ?`,
			next,
			nullableString(task.ResearchJSON),
			nullableString(task.ContentJSON),
			nullableString(task.AssembledPath),
			nullableString(task.ContentFingerprint),
			nullableString(task.PublishedURL),
			formatTime(now),
			task.ID,
			StatusInProgress,
			task.ClaimOwner,
		)
		if err != nil {
			return 0, fmt.Errorf("advance task: %w", err)
		}
		return res.RowsAffected()
	}, "stage "+string(task.Stage)+" complete")
}

// Retry releases an owned task back to its stage entry status after a
// retriable failure. The attempt counter increments and the task stays out of
// eligibility until the backoff window elapses.
func (s *Store) Retry(ctx context.Context, task *Task, delay time.Duration, message string) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	entry := task.Stage.EntryStatus()
	now := time.Now()
	notBefore := now.Add(delay)

	err := s.release(ctx, task, entry, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, stage = NULL, attempt_count = attempt_count + 1, not_before = ?,
                 claim_owner = NULL, lease_expires_at = NULL, error_message = ?, updated_at = ?
             WHERE id = ? AND status = ? AND claim_owner = ?`,
			entry,
			formatTime(notBefore),
			nullableString(message),
			formatTime(now),
			task.ID,
			StatusInProgress,
			task.ClaimOwner,
		)
		if err != nil {
			return 0, fmt.Errorf("retry task: %w", err)
		}
		return res.RowsAffected()
	}, "retriable failure: "+message)
	if err != nil {
		return err
	}
	task.AttemptCount++
	task.NotBefore = &notBefore
	return nil
}

// Requeue releases an owned task back to its stage entry status without
// touching the attempt counter. Used when execution was interrupted rather
// than failed, such as a daemon shutdown canceling in-flight work.
func (s *Store) Requeue(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	entry := task.Stage.EntryStatus()
	now := time.Now()

	return s.release(ctx, task, entry, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, stage = NULL, not_before = NULL,
                 claim_owner = NULL, lease_expires_at = NULL, updated_at = ?
             WHERE id = ? AND status = ? AND claim_owner = ?`,
			entry,
			formatTime(now),
			task.ID,
			StatusInProgress,
			task.ClaimOwner,
		)
		if err != nil {
			return 0, fmt.Errorf("requeue task: %w", err)
		}
		return res.RowsAffected()
	}, "execution interrupted")
}

// Fail releases an owned task into the terminal failed status after its retry
// budget is exhausted.
func (s *Store) Fail(ctx context.Context, task *Task, message string) error {
	return s.releaseTerminal(ctx, task, StatusFailed, message)
}

// MarkError releases an owned task into the error status after a fatal,
// non-retriable failure.
func (s *Store) MarkError(ctx context.Context, task *Task, message string) error {
	return s.releaseTerminal(ctx, task, StatusError, message)
}

func (s *Store) releaseTerminal(ctx context.Context, task *Task, terminal Status, message string) error {
	if task == nil {
		return fmt.Errorf("task is nil")
	}
	now := time.Now()
	err := s.release(ctx, task, terminal, func(tx *sql.Tx) (int64, error) {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET status = ?, stage = NULL, not_before = NULL,
                 claim_owner = NULL, lease_expires_at = NULL, error_message = ?, updated_at = ?
             WHERE id = ? AND status = ? AND claim_owner = ?`,
			terminal,
			nullableString(message),
			formatTime(now),
			task.ID,
			StatusInProgress,
			task.ClaimOwner,
		)
		if err != nil {
			return 0, fmt.Errorf("mark task %s: %w", terminal, err)
		}
		return res.RowsAffected()
	}, message)
	if err != nil {
		return err
	}
	task.ErrorMessage = message
	return nil
}

func (s *Store) release(ctx context.Context, task *Task, next Status, apply func(*sql.Tx) (int64, error), detail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin release tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	affected, err := apply(tx)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %s", ErrClaimLost, task.ID)
	}

	if err := appendEvent(ctx, tx, task.ID, StatusInProgress, next, detail); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}

	task.Status = next
	task.ClaimOwner = ""
	task.LeaseExpiresAt = nil
	return nil
}
