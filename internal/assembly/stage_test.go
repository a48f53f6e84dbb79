package assembly_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"pageforge/internal/assembly"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/services"
	"pageforge/internal/stage"
	"pageforge/internal/testsupport"
)

func sampleContent() stage.ContentResult {
	return stage.ContentResult{
		Title:           "Emergency Plumber in Deerfield Beach",
		MetaDescription: "Fast local plumbing repairs in Deerfield Beach, FL.",
		Sections: []string{
			"Our licensed plumbers handle burst pipes, clogged drains, and water heater failures.",
			"Call any time; we answer around the clock.",
		},
	}
}

func TestRunRendersPage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	assembler := assembly.New(cfg, logging.NewNop())
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	result, err := assembler.Run(context.Background(), task, sampleContent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.HTMLPath == "" || result.Fingerprint == "" || result.SchemaMarkup == "" {
		t.Fatalf("incomplete result: %#v", result)
	}
	if !strings.HasPrefix(result.Fingerprint, "pf-") {
		t.Fatalf("fingerprint = %q", result.Fingerprint)
	}

	raw, err := os.ReadFile(result.HTMLPath)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	page := string(raw)
	for _, want := range []string{
		"Emergency Plumber in Deerfield Beach",
		result.Fingerprint,
		"schema.org",
		"burst pipes",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestRunFingerprintDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	assembler := assembly.New(cfg, logging.NewNop())
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	first, err := assembler.Run(context.Background(), task, sampleContent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := assembler.Run(context.Background(), task, sampleContent())
	if err != nil {
		t.Fatalf("repeat Run failed: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("fingerprints differ: %q vs %q", first.Fingerprint, second.Fingerprint)
	}

	other := &queue.Task{ID: "plumber_90210", ServiceID: "plumber", LocationKey: "90210"}
	third, err := assembler.Run(context.Background(), other, sampleContent())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if third.Fingerprint == first.Fingerprint {
		t.Fatal("different tasks produced the same fingerprint")
	}
}

func TestRunRejectsMissingContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	assembler := assembly.New(cfg, logging.NewNop())
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	_, err := assembler.Run(context.Background(), task, stage.ContentResult{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
	if services.Classify(err) != services.ClassFatal {
		t.Fatal("missing content must classify fatal")
	}

	if _, err := assembler.Run(context.Background(), nil, sampleContent()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("nil task err = %v, want validation marker", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	assembler := assembly.New(cfg, logging.NewNop())
	health := assembler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("health not ready: %#v", health)
	}
}
