package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pageforge/internal/catalog"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/testsupport"
)

func TestLoadBundledSamples(t *testing.T) {
	services, err := catalog.LoadServices("")
	if err != nil {
		t.Fatalf("LoadServices failed: %v", err)
	}
	if len(services) == 0 {
		t.Fatal("bundled service catalog is empty")
	}
	locations, err := catalog.LoadLocations("")
	if err != nil {
		t.Fatalf("LoadLocations failed: %v", err)
	}
	if len(locations) == 0 {
		t.Fatal("bundled location catalog is empty")
	}

	foundPlumber, found33442 := false, false
	for _, svc := range services {
		if svc.ID == "plumber" {
			foundPlumber = true
		}
	}
	for _, loc := range locations {
		if loc.Key == "33442" {
			found33442 = true
			if !loc.Active {
				t.Fatal("sample location 33442 should be active")
			}
		}
	}
	if !foundPlumber || !found33442 {
		t.Fatalf("sample catalogs missing expected entries: plumber=%v 33442=%v", foundPlumber, found33442)
	}
}

func TestLoadFallsBackWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "services.json")
	services, err := catalog.LoadServices(missing)
	if err != nil {
		t.Fatalf("LoadServices failed: %v", err)
	}
	if len(services) == 0 {
		t.Fatal("missing file should fall back to bundled samples")
	}
}

func TestLoadRejectsEntriesWithoutIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "services.json")
	if err := os.WriteFile(path, []byte(`[{"id":"","display_name":"Nameless"}]`), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := catalog.LoadServices(path); err == nil {
		t.Fatal("expected error for service without id")
	}

	path = filepath.Join(dir, "locations.json")
	if err := os.WriteFile(path, []byte(`[{"key":"","city":"Nowhere"}]`), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := catalog.LoadLocations(path); err == nil {
		t.Fatal("expected error for location without key")
	}
}

func TestExpandSkipsInactiveLocations(t *testing.T) {
	services := []catalog.Service{{ID: "plumber"}, {ID: "electrician"}}
	locations := []catalog.Location{
		{Key: "33442", Active: true},
		{Key: "90210", Active: false},
		{Key: "10001", Active: true},
	}

	pairs := catalog.Expand(services, locations)
	if len(pairs) != 4 {
		t.Fatalf("pair count = %d, want 4", len(pairs))
	}
	// Catalog order: services outer, locations inner.
	want := []catalog.Pair{
		{ServiceID: "plumber", LocationKey: "33442"},
		{ServiceID: "plumber", LocationKey: "10001"},
		{ServiceID: "electrician", LocationKey: "33442"},
		{ServiceID: "electrician", LocationKey: "10001"},
	}
	for i, pair := range pairs {
		if pair != want[i] {
			t.Fatalf("pair %d = %#v, want %#v", i, pair, want[i])
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Catalog.ServicesPath = ""
	cfg.Catalog.LocationsPath = ""
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := catalog.Seed(ctx, store, cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if first == 0 {
		t.Fatal("seed produced no pairs")
	}

	tasks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != first {
		t.Fatalf("task count = %d, want %d", len(tasks), first)
	}

	// Advance one task, then reseed: counts stay put and progress survives.
	moved := tasks[0]
	if ok, err := store.Claim(ctx, moved, queue.StageResearch, "owner-1", time.Now().Add(time.Minute)); err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}

	second, err := catalog.Seed(ctx, store, cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("repeat Seed failed: %v", err)
	}
	if second != first {
		t.Fatalf("repeat seed pairs = %d, want %d", second, first)
	}
	tasks, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != first {
		t.Fatalf("task count after reseed = %d, want %d", len(tasks), first)
	}
	current, err := store.GetByID(ctx, moved.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if current.Status != queue.StatusInProgress {
		t.Fatalf("reseed reset task status to %s", current.Status)
	}
}
