package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pageforge/internal/config"
	"pageforge/internal/preflight"
	"pageforge/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("Passed = false for writable dir: %s", result.Detail)
	}

	result = preflight.CheckDirectoryAccess("Data directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("Passed = true for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("Detail = %q", result.Detail)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Data directory", file)
	if result.Passed {
		t.Fatal("Passed = true for regular file")
	}
}

func TestCheckLLMConfig(t *testing.T) {
	result := preflight.CheckLLMConfig(config.LLM{Model: "gpt-4o-mini"})
	if result.Passed || !strings.Contains(result.Detail, "api key") {
		t.Fatalf("missing key: Passed = %v Detail = %q", result.Passed, result.Detail)
	}

	result = preflight.CheckLLMConfig(config.LLM{APIKey: "key-1"})
	if result.Passed || !strings.Contains(result.Detail, "model") {
		t.Fatalf("missing model: Passed = %v Detail = %q", result.Passed, result.Detail)
	}

	result = preflight.CheckLLMConfig(config.LLM{APIKey: "key-1", Model: "gpt-4o-mini"})
	if !result.Passed {
		t.Fatalf("complete config: Detail = %q", result.Detail)
	}
}

func TestCheckPublishConfig(t *testing.T) {
	result := preflight.CheckPublishConfig(config.Publish{BaseURL: "https://example.com"})
	if result.Passed || !strings.Contains(result.Detail, "endpoint") {
		t.Fatalf("missing endpoint: Passed = %v Detail = %q", result.Passed, result.Detail)
	}

	result = preflight.CheckPublishConfig(config.Publish{
		APIEndpoint: "https://cms.example.com/api/pages",
		BaseURL:     "https://example.com",
	})
	if !result.Passed {
		t.Fatalf("complete config: Detail = %q", result.Detail)
	}
}

func TestRunAllSkipsPublishCheckInDryRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, result := range results {
		if result.Name == "Publish configuration" {
			t.Fatal("publish check ran in dry run mode")
		}
		if !result.Passed {
			t.Fatalf("%s failed: %s", result.Name, result.Detail)
		}
	}

	cfg = testsupport.NewConfig(t, testsupport.WithLivePublish("https://example.com", "https://cms.example.com/api/pages"))
	results = preflight.RunAll(context.Background(), cfg)
	found := false
	for _, result := range results {
		if result.Name == "Publish configuration" {
			found = true
			if !result.Passed {
				t.Fatalf("publish check failed: %s", result.Detail)
			}
		}
	}
	if !found {
		t.Fatal("publish check missing for live publish config")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil); results != nil {
		t.Fatalf("results = %v, want nil", results)
	}
}
