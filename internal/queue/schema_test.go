package queue_test

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"pageforge/internal/queue"
	"pageforge/internal/testsupport"
)

func rewindSchema(t *testing.T, dbPath string, version int, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	if _, err := db.Exec("UPDATE schema_version SET version = ?", version); err != nil {
		t.Fatalf("set schema version: %v", err)
	}
}

func TestOpenUpgradesOldDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Rewind to a version 1 database, which predates the task_events index.
	dbPath := filepath.Join(cfg.DataDir, "tasks.db")
	rewindSchema(t, dbPath, 1, "DROP INDEX idx_task_events_task_id")

	store, err = queue.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2 after upgrade", version)
	}
	var indexes int
	err = db.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type='index' AND name='idx_task_events_task_id'",
	).Scan(&indexes)
	if err != nil {
		t.Fatalf("read indexes: %v", err)
	}
	if indexes != 1 {
		t.Fatal("task_events index missing after upgrade")
	}
}

func TestOpenRejectsNewerDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	rewindSchema(t, filepath.Join(cfg.DataDir, "tasks.db"), 99)

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("Open = %v, want ErrSchemaMismatch", err)
	}
}
