// Package research implements the seo research stage executor: keyword and
// competitor discovery for one service+location pair via the LLM service.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/services"
	"pageforge/internal/services/llm"
	"pageforge/internal/stage"
)

// Researcher produces keyword research for a task.
type Researcher struct {
	client *llm.Client
	logger *slog.Logger
}

// New constructs the research executor.
func New(cfg *config.Config, client *llm.Client, logger *slog.Logger) *Researcher {
	return &Researcher{
		client: client,
		logger: logging.NewComponentLogger(logger, "research"),
	}
}

type researchPayload struct {
	Keywords        []string `json:"keywords"`
	CompetitorNotes string   `json:"competitor_notes"`
}

// Run executes the research stage for the task.
func (r *Researcher) Run(ctx context.Context, task *queue.Task) (stage.ResearchResult, error) {
	var empty stage.ResearchResult
	if task == nil {
		return empty, services.Wrap(services.ErrValidation, "research", "run", "task required", nil)
	}

	userPrompt := fmt.Sprintf(
		"Service: %s\nLocation: %s\nReturn the top local search keywords and short competitor notes.",
		task.ServiceID, task.LocationKey,
	)
	content, err := r.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return empty, err
	}

	var payload researchPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return empty, services.Wrap(services.ErrTransient, "research", "run", "malformed model payload", err)
	}

	keywords := make([]string, 0, len(payload.Keywords))
	for _, keyword := range payload.Keywords {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	if len(keywords) == 0 {
		return empty, services.Wrap(services.ErrTransient, "research", "run", "model returned no keywords", nil)
	}

	result := stage.ResearchResult{
		Keywords:        keywords,
		CompetitorNotes: strings.TrimSpace(payload.CompetitorNotes),
	}
	r.logger.Debug("research complete",
		logging.String(logging.FieldTaskID, task.ID),
		logging.Int("keywords", len(result.Keywords)),
	)
	return result, nil
}

// HealthCheck reports whether the LLM backend is usable.
func (r *Researcher) HealthCheck(ctx context.Context) stage.Health {
	if !r.client.Configured() {
		return stage.Unhealthy("research", "llm api key not configured")
	}
	return stage.Healthy("research")
}

// EncodeResult serializes a research result for task persistence.
func EncodeResult(result stage.ResearchResult) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode research result: %w", err)
	}
	return string(raw), nil
}

// DecodeResult parses a persisted research result.
func DecodeResult(raw string) (stage.ResearchResult, error) {
	var result stage.ResearchResult
	if strings.TrimSpace(raw) == "" {
		return result, fmt.Errorf("research result missing")
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("decode research result: %w", err)
	}
	return result, nil
}
