package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewTask inserts a pending task for a service+location pair. Inserting an
// already-known task id is a no-op and returns the existing record.
func (s *Store) NewTask(ctx context.Context, serviceID, locationKey string) (*Task, error) {
	id := TaskID(serviceID, locationKey)
	if id == "" || id == "_" {
		return nil, errors.New("service id and location key are required")
	}
	timestamp := formatTime(time.Now())

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO tasks (id, service_id, location_key, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		serviceID,
		locationKey,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a task by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks filtered by status set (or all tasks when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`
	orderClause := ` ORDER BY created_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Eligible returns up to limit claimable tasks for a stage, oldest first.
// Tasks inside a backoff window are excluded. The result is a scheduling hint,
// not a reservation; callers must still win the claim.
func (s *Store) Eligible(ctx context.Context, stage Stage, now time.Time, limit int) ([]*Task, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks
         WHERE status = ? AND (not_before IS NULL OR not_before <= ?)
         ORDER BY updated_at, id LIMIT ?`,
		stage.EntryStatus(),
		formatTime(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query eligible tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// StatusCounts returns the number of tasks per status.
func (s *Store) StatusCounts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return nil, err
		}
		counts[Status(statusStr)] = count
	}
	return counts, rows.Err()
}

// Health aggregates task counts into a summary for status reporting.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	counts, err := s.StatusCounts(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	summary := HealthSummary{
		InProgress: counts[StatusInProgress],
		Pending:    counts[StatusPending],
		Published:  counts[StatusPublished],
		Failed:     counts[StatusFailed],
		Errored:    counts[StatusError],
	}
	for _, count := range counts {
		summary.Total += count
	}
	return summary, nil
}
