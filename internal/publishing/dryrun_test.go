package publishing_test

import (
	"context"
	"testing"

	"pageforge/internal/logging"
	"pageforge/internal/publishing"
	"pageforge/internal/queue"
	"pageforge/internal/testsupport"
)

func TestDryRunPublishIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	publisher := publishing.NewDryRun(cfg, logging.NewNop())
	task := &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}

	ctx := context.Background()
	first, err := publisher.Publish(ctx, task, "/tmp/page.html", task.ID)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if first.PublishedURL != "https://example.com/plumber/33442/" {
		t.Fatalf("url = %q", first.PublishedURL)
	}

	second, err := publisher.Publish(ctx, task, "/tmp/page.html", task.ID)
	if err != nil {
		t.Fatalf("repeat Publish failed: %v", err)
	}
	if second.PublishedURL != first.PublishedURL {
		t.Fatalf("repeat publish produced %q, want %q", second.PublishedURL, first.PublishedURL)
	}
}

func TestDryRunDistinctTasksDistinctURLs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	publisher := publishing.NewDryRun(cfg, logging.NewNop())
	ctx := context.Background()

	a, err := publisher.Publish(ctx, &queue.Task{ID: "plumber_33442", ServiceID: "plumber", LocationKey: "33442"}, "", "plumber_33442")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	b, err := publisher.Publish(ctx, &queue.Task{ID: "plumber_90210", ServiceID: "plumber", LocationKey: "90210"}, "", "plumber_90210")
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if a.PublishedURL == b.PublishedURL {
		t.Fatalf("distinct tasks share url %q", a.PublishedURL)
	}
}

func TestDryRunVerifyAndRollback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	publisher := publishing.NewDryRun(cfg, logging.NewNop())
	ctx := context.Background()

	ok, err := publisher.Verify(ctx, "https://example.com/plumber/33442/", "pf-abc")
	if err != nil || !ok {
		t.Fatalf("Verify = %v, %v, want true", ok, err)
	}
	if err := publisher.Rollback(ctx, &queue.Task{ID: "plumber_33442"}); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if err := publisher.SubmitSitemap(ctx, []string{"https://example.com/plumber/33442/"}); err != nil {
		t.Fatalf("SubmitSitemap failed: %v", err)
	}
	if health := publisher.HealthCheck(ctx); !health.Ready {
		t.Fatalf("health = %#v", health)
	}
}
