// Package publishing implements the publish stage executor over the CMS
// content API, plus the dry-run sink that stands in for it when publishing is
// disabled.
package publishing

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/services"
	"pageforge/internal/services/cms"
	"pageforge/internal/stage"
)

// Publisher publishes assembled pages through the CMS client.
type Publisher struct {
	cfg    config.Publish
	client *cms.Client
	logger *slog.Logger
}

// New constructs the publish executor.
func New(cfg *config.Config, client *cms.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		cfg:    cfg.Publish,
		client: client,
		logger: logging.NewComponentLogger(logger, "publishing"),
	}
}

// Publish uploads the assembled page under the task's idempotency key.
func (p *Publisher) Publish(ctx context.Context, task *queue.Task, htmlPath, idempotencyKey string) (stage.PublishResult, error) {
	var empty stage.PublishResult
	if task == nil {
		return empty, services.Wrap(services.ErrValidation, "publish", "run", "task required", nil)
	}
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		// The assembled artifact is gone; re-running publish cannot recreate
		// it, the task has to be triaged.
		return empty, services.Wrap(services.ErrValidation, "publish", "run", "read assembled page", err)
	}

	url, err := p.client.Publish(ctx, idempotencyKey, task.ServiceID, task.LocationKey, string(html))
	if err != nil {
		return empty, err
	}
	p.logger.Info("page published",
		logging.String(logging.FieldTaskID, task.ID),
		logging.String("published_url", url),
	)
	return stage.PublishResult{PublishedURL: url}, nil
}

// Verify confirms a reportedly-published page is live and matches the
// assembled content fingerprint.
func (p *Publisher) Verify(ctx context.Context, publishedURL, fingerprint string) (bool, error) {
	return p.client.Verify(ctx, publishedURL, fingerprint)
}

// Rollback removes a published page. Best effort; the coordinator decides
// what a rollback failure means for the task.
func (p *Publisher) Rollback(ctx context.Context, task *queue.Task) error {
	if task == nil {
		return services.Wrap(services.ErrValidation, "publish", "rollback", "task required", nil)
	}
	return p.client.Unpublish(ctx, task.ID)
}

// SubmitSitemap forwards successfully published URLs for sitemap regeneration.
func (p *Publisher) SubmitSitemap(ctx context.Context, urls []string) error {
	return p.client.SubmitSitemap(ctx, urls)
}

// HealthCheck reports whether the publish target is configured.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(p.cfg.APIEndpoint) == "" {
		return stage.Unhealthy("publish", "api endpoint not configured")
	}
	return stage.Healthy("publish")
}
