package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pageforge/internal/contentgen"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/research"
	"pageforge/internal/retry"
	"pageforge/internal/services"
)

func newOwnerID() string {
	return uuid.NewString()
}

// runTask executes one claimed task through its stage executor and releases
// the claim according to the outcome. The task must already be claimed.
func (m *Manager) runTask(ctx context.Context, task *queue.Task, s queue.Stage) {
	execCtx := services.WithTaskID(ctx, task.ID)
	execCtx = services.WithStage(execCtx, string(s))
	execCtx = services.WithRequestID(execCtx, uuid.NewString())
	execCtx, cancel := context.WithTimeout(execCtx, m.stageTimeout(s))
	defer cancel()

	log := m.logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldStage, string(s)),
	)
	log.Info("stage started", logging.Int("attempt", task.AttemptCount+1))

	started := time.Now()
	err := m.execute(execCtx, task, s)
	if err == nil {
		if advErr := m.store.Advance(context.WithoutCancel(ctx), task); advErr != nil {
			log.Error("advance failed", logging.Error(advErr))
			return
		}
		log.Info("stage complete",
			logging.Duration("elapsed", time.Since(started)),
			logging.String("status", string(task.Status)),
		)
		return
	}
	m.applyFailure(context.WithoutCancel(ctx), task, s, err)
}

// execute runs the executor for one of the three single-task stages and fills
// the task's payload fields from the result.
func (m *Manager) execute(ctx context.Context, task *queue.Task, s queue.Stage) error {
	switch s {
	case queue.StageResearch:
		result, err := m.stages.Research.Run(ctx, task)
		if err != nil {
			return err
		}
		encoded, err := research.EncodeResult(result)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(s), "encode", "unencodable research result", err)
		}
		task.ResearchJSON = encoded
		return nil

	case queue.StageGenerate:
		prior, err := research.DecodeResult(task.ResearchJSON)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(s), "decode", "missing research payload", err)
		}
		result, err := m.stages.Generate.Run(ctx, task, prior)
		if err != nil {
			return err
		}
		encoded, err := contentgen.EncodeResult(result)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(s), "encode", "unencodable content result", err)
		}
		task.ContentJSON = encoded
		return nil

	case queue.StageAssemble:
		content, err := contentgen.DecodeResult(task.ContentJSON)
		if err != nil {
			return services.Wrap(services.ErrValidation, string(s), "decode", "missing content payload", err)
		}
		result, err := m.stages.Assemble.Run(ctx, task, content)
		if err != nil {
			return err
		}
		task.AssembledPath = result.HTMLPath
		task.ContentFingerprint = result.Fingerprint
		return nil
	}
	return services.Wrap(services.ErrConfiguration, string(s), "dispatch", "no executor for stage", nil)
}

// applyFailure routes a failed execution through the retry policy and
// releases the claim accordingly.
func (m *Manager) applyFailure(ctx context.Context, task *queue.Task, s queue.Stage, cause error) {
	log := m.logger.With(
		logging.String(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldStage, string(s)),
	)

	// Cancellation means the scheduler is shutting down, not that the task
	// failed. Release the claim without burning an attempt; the next run
	// picks the task up from its pre-state.
	if errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		if err := m.store.Requeue(ctx, task); err != nil && !errors.Is(err, queue.ErrClaimLost) {
			log.Error("requeue failed", logging.Error(err))
			return
		}
		log.Info("stage interrupted, task requeued")
		return
	}

	class := services.Classify(cause)
	if errors.Is(cause, context.DeadlineExceeded) {
		class = services.ClassRetriable
	}
	message := services.Message(cause)
	outcome, delay := m.policy.Decide(class, task.AttemptCount)

	var err error
	switch outcome {
	case retry.OutcomeRetry:
		err = m.store.Retry(ctx, task, delay, message)
		log.Warn("stage failed, will retry",
			logging.Int("attempt", task.AttemptCount),
			logging.Duration("backoff", delay),
			logging.Error(cause),
		)
	case retry.OutcomeFail:
		err = m.store.Fail(ctx, task, message)
		log.Error("stage failed, retries exhausted", logging.Error(cause))
		m.notifier.TaskErrored(ctx, task.ID, string(s), message)
	case retry.OutcomeError:
		err = m.store.MarkError(ctx, task, message)
		log.Error("stage failed fatally", logging.Error(cause))
		m.notifier.TaskErrored(ctx, task.ID, string(s), message)
	}
	if err != nil {
		if errors.Is(err, queue.ErrClaimLost) {
			log.Warn("claim lost before release", logging.Error(err))
			return
		}
		log.Error("release failed", logging.Error(err))
	}
}
