package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/stage"
)

// DryRunPublisher routes publish calls to a no-op sink. Pages are never sent
// anywhere; the executor reports the URL the real publisher would have used.
// Repeated calls with the same idempotency key return the same URL.
type DryRunPublisher struct {
	baseURL    string
	urlPattern string
	logger     *slog.Logger

	mu        sync.Mutex
	published map[string]string
}

// NewDryRun constructs the dry-run publish sink.
func NewDryRun(cfg *config.Config, logger *slog.Logger) *DryRunPublisher {
	base := strings.TrimRight(cfg.Publish.BaseURL, "/")
	if base == "" {
		base = "https://dry-run.invalid"
	}
	return &DryRunPublisher{
		baseURL:    base,
		urlPattern: cfg.Publish.URLPattern,
		logger:     logging.NewComponentLogger(logger, "publishing-dryrun"),
		published:  make(map[string]string),
	}
}

// Publish records the task as published without touching any target.
func (d *DryRunPublisher) Publish(ctx context.Context, task *queue.Task, htmlPath, idempotencyKey string) (stage.PublishResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if url, ok := d.published[idempotencyKey]; ok {
		return stage.PublishResult{PublishedURL: url}, nil
	}

	slug := strings.ReplaceAll(strings.ToLower(task.ServiceID), "_", "-")
	path := strings.NewReplacer(
		"{service_slug}", slug,
		"{location_key}", task.LocationKey,
	).Replace(d.urlPattern)
	url := fmt.Sprintf("%s/%s/", d.baseURL, strings.Trim(path, "/"))
	d.published[idempotencyKey] = url

	d.logger.Info("dry run publish",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("published_url", url),
	)
	return stage.PublishResult{PublishedURL: url}, nil
}

// Verify always succeeds; there is nothing live to check.
func (d *DryRunPublisher) Verify(ctx context.Context, publishedURL, fingerprint string) (bool, error) {
	return true, nil
}

// Rollback is a no-op.
func (d *DryRunPublisher) Rollback(ctx context.Context, task *queue.Task) error {
	return nil
}

// SubmitSitemap is a no-op.
func (d *DryRunPublisher) SubmitSitemap(ctx context.Context, urls []string) error {
	return nil
}

// HealthCheck always reports ready.
func (d *DryRunPublisher) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("publish")
}
