package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pageforge/internal/config"
)

const userAgent = "PageForge/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyTaskFailed(ctx context.Context, taskID, stageName, message string) error
	NotifyBatchPublished(ctx context.Context, batchID string, published, failed int) error
	NotifyQueueDrained(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		sendErrors:   cfg.Notifications.Errors,
		sendBatches:  cfg.Notifications.Batches,
		sendQueue:    cfg.Notifications.Queue,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	sendErrors  bool
	sendBatches bool
	sendQueue   bool
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, taskID, stageName, message string) error {
	if !n.sendErrors {
		return nil
	}
	stageName = strings.TrimSpace(stageName)
	if stageName == "" {
		stageName = "unknown"
	}
	data := payload{
		title:    "PageForge - Task Failed",
		message:  fmt.Sprintf("Task %s failed in %s: %s", taskID, stageName, strings.TrimSpace(message)),
		tags:     []string{"pageforge", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchPublished(ctx context.Context, batchID string, published, failed int) error {
	if !n.sendBatches {
		return nil
	}
	var title, message string
	if failed == 0 {
		title = "PageForge - Batch Published"
		message = fmt.Sprintf("Batch %s: %d pages published", batchID, published)
	} else {
		title = "PageForge - Batch Published (with failures)"
		message = fmt.Sprintf("Batch %s: %d published, %d failed", batchID, published, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"pageforge", "batch", "published"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueDrained(ctx context.Context) error {
	if !n.sendQueue {
		return nil
	}
	data := payload{
		title:   "PageForge - Queue Drained",
		message: "All tasks processed; queue is empty",
		tags:    []string{"pageforge", "queue", "drained"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "PageForge - Test",
		message:  "Notification system test",
		tags:     []string{"pageforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTaskFailed(context.Context, string, string, string) error { return nil }
func (noopService) NotifyBatchPublished(context.Context, string, int, int) error   { return nil }
func (noopService) NotifyQueueDrained(context.Context) error                       { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
