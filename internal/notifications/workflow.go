package notifications

import (
	"context"
	"log/slog"

	"pageforge/internal/logging"
	"pageforge/internal/workflow"
)

// workflowNotifier adapts Service to the manager's notifier contract. Delivery
// failures are logged and swallowed; notifications never affect task state.
type workflowNotifier struct {
	svc    Service
	logger *slog.Logger
}

// NewWorkflowNotifier wraps a Service for use by the workflow manager.
func NewWorkflowNotifier(svc Service, logger *slog.Logger) workflow.Notifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &workflowNotifier{
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "notifications"),
	}
}

func (w *workflowNotifier) TaskErrored(ctx context.Context, taskID, stageName, message string) {
	if err := w.svc.NotifyTaskFailed(ctx, taskID, stageName, message); err != nil {
		w.logger.Warn("task failure notification failed", logging.Error(err))
	}
}

func (w *workflowNotifier) BatchPublished(ctx context.Context, batchID string, published, failed int) {
	if err := w.svc.NotifyBatchPublished(ctx, batchID, published, failed); err != nil {
		w.logger.Warn("batch notification failed", logging.Error(err))
	}
}

func (w *workflowNotifier) QueueDrained(ctx context.Context) {
	if err := w.svc.NotifyQueueDrained(ctx); err != nil {
		w.logger.Warn("queue drained notification failed", logging.Error(err))
	}
}
