package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// taskMigration upgrades the task database by one schema version. schema.sql
// always creates the latest shape, so a fresh database applies none of these;
// only databases created before the migration's version run it.
type taskMigration struct {
	version int
	name    string
	stmts   []string
}

// taskMigrations lists every upgrade past version 1. Append only, in version
// order, and bump schemaVersion alongside the newest entry.
var taskMigrations = []taskMigration{
	{
		version: 2,
		name:    "task_events_task_id_index",
		stmts: []string{
			"CREATE INDEX IF NOT EXISTS idx_task_events_task_id ON task_events(task_id)",
		},
	},
}

// upgradeSchema applies every migration newer than the stored version inside
// one transaction, then records the new version. A crash mid-upgrade leaves
// the database at its prior version.
func (s *Store) upgradeSchema(ctx context.Context, from int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upgrade tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range taskMigrations {
		if m.version <= from {
			continue
		}
		if err := m.run(ctx, tx); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "UPDATE schema_version SET version = ?", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upgrade: %w", err)
	}
	return nil
}

func (m taskMigration) run(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}
