package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pageforge/internal/config"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/retry"
	"pageforge/internal/stage"
)

// Stages bundles the four pipeline stage executors.
type Stages struct {
	Research stage.ResearchExecutor
	Generate stage.GenerateExecutor
	Assemble stage.AssembleExecutor
	Publish  stage.PublishExecutor
}

// Notifier receives lifecycle notifications from the manager. Implementations
// must be non-blocking or bound their own timeouts.
type Notifier interface {
	TaskErrored(ctx context.Context, taskID, stageName, message string)
	BatchPublished(ctx context.Context, batchID string, published, failed int)
	QueueDrained(ctx context.Context)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) TaskErrored(context.Context, string, string, string) {}
func (NopNotifier) BatchPublished(context.Context, string, int, int)    {}
func (NopNotifier) QueueDrained(context.Context)                        {}

// Options configures a Manager.
type Options struct {
	Config   *config.Config
	Store    *queue.Store
	Stages   Stages
	Notifier Notifier
	Logger   *slog.Logger
}

// Manager owns the scheduling loop.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	stages   Stages
	policy   retry.Policy
	notifier Notifier
	logger   *slog.Logger

	// slots bounds total in-flight stage executions; stageSlots adds the
	// optional per-stage caps on top.
	slots      chan struct{}
	stageSlots map[queue.Stage]chan struct{}

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	nextBatchAt time.Time
	batchBusy   bool
	drained     bool
	degraded    bool

	wg sync.WaitGroup
}

// NewManager constructs a manager. The store and all four stage executors are
// required.
func NewManager(opts Options) (*Manager, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Stages.Research == nil || opts.Stages.Generate == nil ||
		opts.Stages.Assemble == nil || opts.Stages.Publish == nil {
		return nil, fmt.Errorf("all stage executors are required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	total := opts.Config.Workflow.MaxConcurrentTotal
	if total <= 0 {
		total = 1
	}
	stageSlots := make(map[queue.Stage]chan struct{})
	for name, limit := range opts.Config.Workflow.MaxConcurrentPerStage {
		if limit <= 0 {
			continue
		}
		stageSlots[queue.Stage(name)] = make(chan struct{}, limit)
	}

	return &Manager{
		cfg:        opts.Config,
		store:      opts.Store,
		stages:     opts.Stages,
		policy:     retry.FromConfig(opts.Config.Retry),
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		slots:      make(chan struct{}, total),
		stageSlots: stageSlots,
	}, nil
}

// Start launches the polling loop. It returns immediately; use Stop to wind
// the manager down.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("workflow manager already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	if reclaimed, err := m.store.ReclaimExpired(loopCtx, time.Now()); err != nil {
		m.logger.Warn("startup lease reclaim failed", logging.Error(err))
	} else if reclaimed > 0 {
		m.logger.Info("reclaimed stale claims", logging.Int64("count", reclaimed))
	}

	m.wg.Add(1)
	go m.loop(loopCtx)
	m.logger.Info("workflow manager started",
		logging.Int("max_concurrent_total", cap(m.slots)),
		logging.Duration("poll_interval", m.pollInterval()),
	)
	return nil
}

// Stop halts scheduling and waits for in-flight stage executions to release
// their tasks.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow manager stopped")
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(m.pollInterval())
	defer timer.Stop()

	for {
		m.tick(ctx)
		timer.Reset(m.nextPollDelay())
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// nextPollDelay paces the loop: the normal poll interval, or the shorter
// error retry interval after a tick whose store queries failed.
func (m *Manager) nextPollDelay() time.Duration {
	m.mu.Lock()
	degraded := m.degraded
	m.mu.Unlock()
	if degraded {
		return m.errorRetryInterval()
	}
	return m.pollInterval()
}

// tick runs one scheduling pass: reclaim expired leases, dispatch the three
// single-task stages, and kick the publish batch coordinator when due.
func (m *Manager) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	degraded := false
	if _, err := m.store.ReclaimExpired(ctx, time.Now()); err != nil && ctx.Err() == nil {
		m.logger.Warn("lease reclaim failed", logging.Error(err))
		degraded = true
	}

	dispatched := 0
	for _, s := range []queue.Stage{queue.StageResearch, queue.StageGenerate, queue.StageAssemble} {
		n, err := m.dispatchStage(ctx, s)
		dispatched += n
		if err != nil {
			degraded = true
		}
	}
	m.maybeRunBatch(ctx)

	if dispatched == 0 && !degraded {
		m.checkDrained(ctx)
	}

	m.mu.Lock()
	m.degraded = degraded
	m.mu.Unlock()
}

// dispatchStage claims and launches eligible tasks for one stage, bounded by
// the free worker slots. Returns the number of tasks dispatched and any store
// query failure.
func (m *Manager) dispatchStage(ctx context.Context, s queue.Stage) (int, error) {
	free := cap(m.slots) - len(m.slots)
	if free <= 0 {
		return 0, nil
	}
	tasks, err := m.store.Eligible(ctx, s, time.Now(), free)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Error("eligible query failed",
				logging.String(logging.FieldStage, string(s)),
				logging.Error(err),
			)
		}
		return 0, err
	}

	dispatched := 0
	for _, task := range tasks {
		if !m.acquire(s) {
			break
		}
		leaseUntil := time.Now().Add(m.leaseTimeout())
		owner := newOwnerID()
		claimed, err := m.store.Claim(ctx, task, s, owner, leaseUntil)
		if err != nil || !claimed {
			m.release(s)
			if err != nil && ctx.Err() == nil {
				m.logger.Error("claim failed",
					logging.String(logging.FieldTaskID, task.ID),
					logging.Error(err),
				)
			}
			continue
		}
		dispatched++
		m.wg.Add(1)
		go func(task *queue.Task) {
			defer m.wg.Done()
			defer m.release(s)
			m.runTask(ctx, task, s)
		}(task)
	}
	return dispatched, nil
}

// acquire takes one total slot plus the stage slot when a per-stage cap is
// configured. Non-blocking: a full pool defers the task to the next tick.
func (m *Manager) acquire(s queue.Stage) bool {
	select {
	case m.slots <- struct{}{}:
	default:
		return false
	}
	if ss, ok := m.stageSlots[s]; ok {
		select {
		case ss <- struct{}{}:
		default:
			<-m.slots
			return false
		}
	}
	return true
}

func (m *Manager) release(s queue.Stage) {
	if ss, ok := m.stageSlots[s]; ok {
		<-ss
	}
	<-m.slots
}

func (m *Manager) checkDrained(ctx context.Context) {
	m.mu.Lock()
	alreadyDrained := m.drained
	m.mu.Unlock()

	counts, err := m.store.StatusCounts(ctx)
	if err != nil {
		return
	}
	active := 0
	for status, count := range counts {
		if !status.IsTerminal() {
			active += count
		}
	}
	m.mu.Lock()
	m.drained = active == 0
	notify := m.drained && !alreadyDrained
	m.mu.Unlock()
	if notify {
		m.logger.Info("queue drained")
		m.notifier.QueueDrained(ctx)
	}
}

func (m *Manager) pollInterval() time.Duration {
	if m.cfg.Workflow.QueuePollInterval <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
}

func (m *Manager) errorRetryInterval() time.Duration {
	if m.cfg.Workflow.ErrorRetryInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
}

func (m *Manager) leaseTimeout() time.Duration {
	if m.cfg.Workflow.LeaseTimeout <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(m.cfg.Workflow.LeaseTimeout) * time.Second
}

func (m *Manager) stageTimeout(s queue.Stage) time.Duration {
	seconds := 0
	switch s {
	case queue.StageResearch:
		seconds = m.cfg.Workflow.ResearchTimeout
	case queue.StageGenerate:
		seconds = m.cfg.Workflow.GenerateTimeout
	case queue.StageAssemble:
		seconds = m.cfg.Workflow.AssembleTimeout
	case queue.StagePublish:
		seconds = m.cfg.Workflow.PublishTimeout
	}
	if seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}
