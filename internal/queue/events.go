package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event is one row of the per-task audit log.
type Event struct {
	ID         int64
	TaskID     string
	FromStatus Status
	ToStatus   Status
	Detail     string
	CreatedAt  time.Time
}

func appendEvent(ctx context.Context, tx *sql.Tx, taskID string, from, to Status, detail string) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO task_events (task_id, from_status, to_status, detail, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		taskID,
		from,
		to,
		nullableString(detail),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("append task event: %w", err)
	}
	return nil
}

// Events returns the transition history for a task, oldest first.
func (s *Store) Events(ctx context.Context, taskID string) ([]Event, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, task_id, from_status, to_status, detail, created_at
         FROM task_events WHERE task_id = ? ORDER BY id`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query task events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			fromRaw   string
			toRaw     string
			detail    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &fromRaw, &toRaw, &detail, &createdAt); err != nil {
			return nil, err
		}
		event.FromStatus = Status(fromRaw)
		event.ToStatus = Status(toRaw)
		event.Detail = detail.String
		event.CreatedAt = parseTime(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}
