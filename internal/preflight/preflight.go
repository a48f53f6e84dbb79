package preflight

import (
	"context"
	"strings"

	"pageforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minStagingBytes is the free space floor for the staging directory.
// Assembled pages are tiny, so the floor guards against a full disk rather
// than sizing actual output.
const minStagingBytes = 256 << 20

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.DataDir))
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.LogDir))
	results = append(results, CheckDiskSpace("Staging disk space", cfg.StagingDir, minStagingBytes))

	results = append(results, CheckLLMConfig(cfg.LLM))
	if !cfg.Publish.DryRun {
		results = append(results, CheckPublishConfig(cfg.Publish))
	}

	return results
}

// CheckLLMConfig verifies the LLM section is complete enough to run the
// research and generation stages.
func CheckLLMConfig(cfg config.LLM) Result {
	const name = "LLM configuration"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "api key missing"}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return Result{Name: name, Detail: "model missing"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckPublishConfig verifies the publish section names a live target.
func CheckPublishConfig(cfg config.Publish) Result {
	const name = "Publish configuration"
	if strings.TrimSpace(cfg.APIEndpoint) == "" {
		return Result{Name: name, Detail: "api endpoint missing"}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{Name: name, Detail: "base url missing"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}
