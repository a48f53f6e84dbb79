// Package testsupport holds shared helpers for package tests: throwaway
// configs, stores, and tasks.
package testsupport

import (
	"path/filepath"
	"testing"

	"pageforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Publishing defaults to dry-run so no test touches the network by accident.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.StagingDir = filepath.Join(base, "staging")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.SocketPath = filepath.Join(base, "pageforged.sock")
	cfg.LLM.APIKey = "test"
	cfg.Publish.DryRun = true
	cfg.Publish.BaseURL = "https://example.com"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithLivePublish points the config at a publish endpoint and disables
// dry-run.
func WithLivePublish(apiEndpoint, baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Publish.DryRun = false
		cfg.Publish.APIEndpoint = apiEndpoint
		cfg.Publish.BaseURL = baseURL
	}
}

// WithRetry overrides the retry policy settings.
func WithRetry(maxAttempts, baseDelaySeconds, maxDelaySeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retry.MaxAttempts = maxAttempts
		cfg.Retry.BaseDelaySeconds = baseDelaySeconds
		cfg.Retry.MaxDelaySeconds = maxDelaySeconds
	}
}
