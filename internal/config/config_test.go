package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pageforge/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Workflow.MaxConcurrentTotal != 5 {
		t.Fatalf("max_concurrent_total = %d, want 5", cfg.Workflow.MaxConcurrentTotal)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("max_retry_attempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Publish.BatchSize != 10 {
		t.Fatalf("batch_size = %d, want 10", cfg.Publish.BatchSize)
	}
	if !cfg.Publish.VerificationEnabled || !cfg.Publish.RollbackOnFailure {
		t.Fatal("verification and rollback should default on")
	}
	if cfg.Publish.URLPattern != "{service_slug}/{location_key}" {
		t.Fatalf("url_pattern = %q", cfg.Publish.URLPattern)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as found")
	}
	if resolved == "" {
		t.Fatal("resolved path empty")
	}
	if cfg.Workflow.QueuePollInterval != 10 {
		t.Fatalf("queue_poll_interval = %d, want default 10", cfg.Workflow.QueuePollInterval)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[workflow]
max_concurrent_total = 2

[workflow.max_concurrent_per_stage]
generate = 1

[retry]
max_retry_attempts = 5
base_delay_seconds = 2
max_delay_seconds = 60

[publish]
dry_run = true
base_url = "https://example.com/"
batch_size = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Workflow.MaxConcurrentTotal != 2 {
		t.Fatalf("max_concurrent_total = %d, want 2", cfg.Workflow.MaxConcurrentTotal)
	}
	if cfg.Workflow.MaxConcurrentPerStage["generate"] != 1 {
		t.Fatalf("per-stage cap = %v", cfg.Workflow.MaxConcurrentPerStage)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Fatalf("max_retry_attempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Publish.BatchSize != 4 {
		t.Fatalf("batch_size = %d, want 4", cfg.Publish.BatchSize)
	}
	// Normalization trims the trailing slash.
	if cfg.Publish.BaseURL != "https://example.com" {
		t.Fatalf("base_url = %q", cfg.Publish.BaseURL)
	}
	// Unset sections keep their defaults.
	if cfg.Workflow.GenerateTimeout != 300 {
		t.Fatalf("generate_timeout = %d, want default 300", cfg.Workflow.GenerateTimeout)
	}
}

func TestValidateRejectsUnknownStageCap(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.MaxConcurrentPerStage = map[string]int{"ripping": 2}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown stage") {
		t.Fatalf("err = %v, want unknown stage", err)
	}
}

func TestValidateRejectsInvertedRetryDelays(t *testing.T) {
	cfg := config.Default()
	cfg.Retry.BaseDelaySeconds = 60
	cfg.Retry.MaxDelaySeconds = 5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max delay below base delay")
	}
}

func TestValidateRequiresPublishTargetUnlessDryRun(t *testing.T) {
	cfg := config.Default()
	cfg.Publish.DryRun = false
	cfg.Publish.BaseURL = ""
	cfg.Publish.APIEndpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for live publish without target")
	}
	cfg.Publish.DryRun = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dry run should not require a target: %v", err)
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	// The sample must itself be loadable.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error overwriting existing config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/pageforge")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "pageforge") {
		t.Fatalf("ExpandPath = %q", got)
	}
	if got, err := config.ExpandPath(""); err != nil || got != "" {
		t.Fatalf("ExpandPath(\"\") = %q, %v", got, err)
	}
}
