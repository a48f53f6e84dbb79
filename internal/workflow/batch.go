package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/retry"
	"pageforge/internal/services"
)

// SitemapSubmitter is implemented by publish executors that can notify the
// target site of new URLs after a batch.
type SitemapSubmitter interface {
	SubmitSitemap(ctx context.Context, urls []string) error
}

// maybeRunBatch launches the publish batch coordinator when publishable tasks
// exist, the previous batch has finished, and the inter-batch delay elapsed.
func (m *Manager) maybeRunBatch(ctx context.Context) {
	m.mu.Lock()
	if m.batchBusy || time.Now().Before(m.nextBatchAt) {
		m.mu.Unlock()
		return
	}
	m.batchBusy = true
	m.mu.Unlock()

	batchSize := m.cfg.Publish.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	candidates, err := m.store.Eligible(ctx, queue.StagePublish, time.Now(), batchSize)
	if err != nil || len(candidates) == 0 {
		if err != nil && ctx.Err() == nil {
			m.logger.Error("publish eligible query failed", logging.Error(err))
		}
		m.mu.Lock()
		m.batchBusy = false
		m.mu.Unlock()
		return
	}

	if !m.acquire(queue.StagePublish) {
		m.mu.Lock()
		m.batchBusy = false
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(queue.StagePublish)
		m.runBatch(ctx, candidates)

		m.mu.Lock()
		m.nextBatchAt = time.Now().Add(m.batchDelay())
		m.batchBusy = false
		m.mu.Unlock()
	}()
}

// runBatch publishes a claimed batch of tasks one at a time. Tasks are
// isolated: one task's failure never aborts the rest of the batch. After the
// batch, published URLs are submitted to the sitemap when enabled.
func (m *Manager) runBatch(ctx context.Context, candidates []*queue.Task) {
	batchID := uuid.NewString()
	log := m.logger.With(logging.String(logging.FieldBatchID, batchID))
	log.Info("publish batch started", logging.Int("candidates", len(candidates)))

	var published, failed int
	var publishedURLs []string
	for _, task := range candidates {
		if ctx.Err() != nil {
			break
		}
		leaseUntil := time.Now().Add(m.leaseTimeout())
		claimed, err := m.store.Claim(ctx, task, queue.StagePublish, newOwnerID(), leaseUntil)
		if err != nil || !claimed {
			if err != nil && ctx.Err() == nil {
				log.Error("publish claim failed",
					logging.String(logging.FieldTaskID, task.ID),
					logging.Error(err),
				)
			}
			continue
		}
		if url, ok := m.publishTask(ctx, task, batchID); ok {
			published++
			publishedURLs = append(publishedURLs, url)
		} else {
			failed++
		}
	}

	if published > 0 && m.cfg.Publish.SitemapEnabled {
		if submitter, ok := m.stages.Publish.(SitemapSubmitter); ok {
			if err := submitter.SubmitSitemap(context.WithoutCancel(ctx), publishedURLs); err != nil {
				log.Warn("sitemap submission failed", logging.Error(err))
			}
		}
	}

	log.Info("publish batch complete",
		logging.Int("published", published),
		logging.Int("failed", failed),
	)
	if published > 0 || failed > 0 {
		m.notifier.BatchPublished(context.WithoutCancel(ctx), batchID, published, failed)
	}
}

// publishTask publishes one claimed task, verifies the live page, and
// releases the claim. Reports the published URL on success.
func (m *Manager) publishTask(ctx context.Context, task *queue.Task, batchID string) (string, bool) {
	execCtx := services.WithTaskID(ctx, task.ID)
	execCtx = services.WithStage(execCtx, string(queue.StagePublish))
	execCtx = services.WithBatchID(execCtx, batchID)
	execCtx, cancel := context.WithTimeout(execCtx, m.stageTimeout(queue.StagePublish))
	defer cancel()

	log := m.logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldBatchID, batchID),
	)

	// The task id doubles as the idempotency key, so a retried publish of
	// the same task lands on the same page.
	result, err := m.stages.Publish.Publish(execCtx, task, task.AssembledPath, task.ID)
	if err != nil {
		m.applyFailure(context.WithoutCancel(ctx), task, queue.StagePublish, err)
		return "", false
	}

	if m.cfg.Publish.VerificationEnabled {
		ok, verr := m.stages.Publish.Verify(execCtx, result.PublishedURL, task.ContentFingerprint)
		if verr != nil || !ok {
			m.handleVerificationFailure(context.WithoutCancel(ctx), task, result.PublishedURL, verr)
			return "", false
		}
	}

	task.PublishedURL = result.PublishedURL
	if err := m.store.Advance(context.WithoutCancel(ctx), task); err != nil {
		log.Error("publish release failed", logging.Error(err))
		return "", false
	}
	log.Info("page published", logging.String("published_url", result.PublishedURL))
	return result.PublishedURL, true
}

// handleVerificationFailure deals with a page that published but did not
// verify. With rollback enabled the page is unpublished best-effort and the
// task lands in failed; otherwise it lands in error for operator review,
// since the live page may be wrong.
func (m *Manager) handleVerificationFailure(ctx context.Context, task *queue.Task, publishedURL string, cause error) {
	log := m.logger.With(logging.String(logging.FieldTaskID, task.ID))
	message := "published page failed verification"
	if cause != nil {
		message = services.Message(cause)
		if errors.Is(cause, context.DeadlineExceeded) || services.Classify(cause) == services.ClassRetriable {
			// Verification itself was flaky, not the page. Retry the whole
			// publish; the idempotency key keeps the page from duplicating.
			outcome, delay := m.policy.Decide(services.ClassRetriable, task.AttemptCount)
			if outcome == retry.OutcomeRetry {
				if err := m.store.Retry(ctx, task, delay, message); err != nil {
					log.Error("verification retry release failed", logging.Error(err))
				}
				return
			}
		}
	}

	log.Warn("verification failed",
		logging.String("published_url", publishedURL),
		logging.Error(cause),
	)
	if m.cfg.Publish.RollbackOnFailure {
		if err := m.stages.Publish.Rollback(ctx, task); err != nil {
			log.Warn("rollback failed", logging.Error(err))
		}
		if err := m.store.Fail(ctx, task, message); err != nil {
			log.Error("fail release failed", logging.Error(err))
		}
	} else {
		if err := m.store.MarkError(ctx, task, message); err != nil {
			log.Error("error release failed", logging.Error(err))
		}
	}
	m.notifier.TaskErrored(ctx, task.ID, string(queue.StagePublish), message)
}

func (m *Manager) batchDelay() time.Duration {
	if m.cfg.Publish.DelayBetweenBatchesSeconds <= 0 {
		return 0
	}
	return time.Duration(m.cfg.Publish.DelayBetweenBatchesSeconds) * time.Second
}
