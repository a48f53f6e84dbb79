// Package stage defines the contracts between the scheduler and the four
// pipeline stage executors. Executors are opaque collaborators: the scheduler
// only sees their typed results and classified failures.
package stage

import (
	"context"

	"pageforge/internal/queue"
)

// ResearchResult is the output of the keyword/competitor research stage.
type ResearchResult struct {
	Keywords        []string `json:"keywords"`
	CompetitorNotes string   `json:"competitor_notes"`
}

// ContentResult is the output of the content generation stage.
type ContentResult struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Sections        []string `json:"sections"`
	WordCount       int      `json:"word_count"`
}

// AssembleResult is the output of the page assembly stage.
type AssembleResult struct {
	HTMLPath     string `json:"html_path"`
	SchemaMarkup string `json:"schema_markup"`
	// Fingerprint identifies the assembled content for post-publish
	// verification.
	Fingerprint string `json:"fingerprint"`
}

// PublishResult is the per-task output of a publish call.
type PublishResult struct {
	PublishedURL string `json:"published_url"`
}

// ResearchExecutor performs the seo research stage.
type ResearchExecutor interface {
	Run(ctx context.Context, task *queue.Task) (ResearchResult, error)
}

// GenerateExecutor performs the content generation stage.
type GenerateExecutor interface {
	Run(ctx context.Context, task *queue.Task, research ResearchResult) (ContentResult, error)
}

// AssembleExecutor performs the page assembly stage.
type AssembleExecutor interface {
	Run(ctx context.Context, task *queue.Task, content ContentResult) (AssembleResult, error)
}

// PublishExecutor performs the publish stage, including post-publish
// verification and best-effort rollback. Publish must be idempotent under the
// supplied key: repeating a call with the same key yields the same URL and no
// duplicate artifact.
type PublishExecutor interface {
	Publish(ctx context.Context, task *queue.Task, htmlPath, idempotencyKey string) (PublishResult, error)
	Verify(ctx context.Context, publishedURL, fingerprint string) (bool, error)
	Rollback(ctx context.Context, task *queue.Task) error
}
