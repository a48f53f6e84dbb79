// Package contentgen implements the content generation stage executor. It
// turns research output into structured page content within configured
// word-count and length bounds.
package contentgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/services"
	"pageforge/internal/services/llm"
	"pageforge/internal/stage"
)

// Generator produces structured page content for a task.
type Generator struct {
	cfg    config.Content
	client *llm.Client
	logger *slog.Logger
	titler cases.Caser
}

// New constructs the content generation executor.
func New(cfg *config.Config, client *llm.Client, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg.Content,
		client: client,
		logger: logging.NewComponentLogger(logger, "contentgen"),
		titler: cases.Title(language.AmericanEnglish),
	}
}

type contentPayload struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Sections        []string `json:"sections"`
}

// Run executes the content generation stage for the task.
func (g *Generator) Run(ctx context.Context, task *queue.Task, research stage.ResearchResult) (stage.ContentResult, error) {
	var empty stage.ContentResult
	if task == nil {
		return empty, services.Wrap(services.ErrValidation, "generate", "run", "task required", nil)
	}
	if len(research.Keywords) == 0 {
		return empty, services.Wrap(services.ErrValidation, "generate", "run", "research data missing", nil)
	}

	serviceName := g.titler.String(strings.ReplaceAll(task.ServiceID, "_", " "))
	userPrompt := fmt.Sprintf(
		"Service: %s\nLocation: %s\nTarget keywords: %s\nCompetitor notes: %s\nWrite between %d and %d words across the sections.",
		serviceName,
		task.LocationKey,
		strings.Join(research.Keywords, ", "),
		research.CompetitorNotes,
		g.cfg.MinWordCount,
		g.cfg.MaxWordCount,
	)

	content, err := g.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return empty, err
	}

	var payload contentPayload
	if err := llm.DecodeJSON(content, &payload); err != nil {
		return empty, services.Wrap(services.ErrTransient, "generate", "run", "malformed model payload", err)
	}

	result := stage.ContentResult{
		Title:           strings.TrimSpace(payload.Title),
		MetaDescription: strings.TrimSpace(payload.MetaDescription),
		Sections:        payload.Sections,
	}
	if result.Title == "" || len(result.Sections) == 0 {
		return empty, services.Wrap(services.ErrTransient, "generate", "run", "model returned empty content", nil)
	}
	if g.cfg.MaxTitleLength > 0 {
		result.Title = truncateRunes(result.Title, g.cfg.MaxTitleLength)
	}
	if g.cfg.MaxMetaDescriptionLength > 0 {
		result.MetaDescription = truncateRunes(result.MetaDescription, g.cfg.MaxMetaDescriptionLength)
	}

	result.WordCount = countWords(result.Sections)
	if g.cfg.MinWordCount > 0 && result.WordCount < g.cfg.MinWordCount {
		return empty, services.Wrap(services.ErrTransient, "generate", "run",
			fmt.Sprintf("content too short: %d words", result.WordCount), nil)
	}

	g.logger.Debug("content generated",
		logging.String(logging.FieldTaskID, task.ID),
		logging.Int("word_count", result.WordCount),
	)
	return result, nil
}

// HealthCheck reports whether the LLM backend is usable.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if !g.client.Configured() {
		return stage.Unhealthy("generate", "llm api key not configured")
	}
	return stage.Healthy("generate")
}

// EncodeResult serializes a content result for task persistence.
func EncodeResult(result stage.ContentResult) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode content result: %w", err)
	}
	return string(raw), nil
}

// DecodeResult parses a persisted content result.
func DecodeResult(raw string) (stage.ContentResult, error) {
	var result stage.ContentResult
	if strings.TrimSpace(raw) == "" {
		return result, fmt.Errorf("content result missing")
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("decode content result: %w", err)
	}
	return result, nil
}

// truncateRunes cuts s to at most max runes so a multi-byte rune is never
// split mid-sequence.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

func countWords(sections []string) int {
	total := 0
	for _, section := range sections {
		total += len(strings.Fields(section))
	}
	return total
}
