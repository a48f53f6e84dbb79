package workflow

import (
	"context"

	"pageforge/internal/queue"
	"pageforge/internal/stage"
)

// Summary is a point-in-time view of the manager, its queue, and the
// readiness of each stage executor.
type Summary struct {
	Running  bool                `json:"running"`
	InFlight int                 `json:"in_flight"`
	Queue    queue.HealthSummary `json:"queue"`
	Stages   []stage.Health      `json:"stages"`
}

// Summary reports the manager state alongside aggregate queue counts.
func (m *Manager) Summary(ctx context.Context) (Summary, error) {
	health, err := m.store.Health(ctx)
	if err != nil {
		return Summary{}, err
	}
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	return Summary{
		Running:  running,
		InFlight: len(m.slots),
		Queue:    health,
		Stages:   m.stageHealth(ctx),
	}, nil
}

// stageHealth runs each executor's readiness check. Executors without one are
// assumed ready.
func (m *Manager) stageHealth(ctx context.Context) []stage.Health {
	executors := []struct {
		name string
		impl any
	}{
		{string(queue.StageResearch), m.stages.Research},
		{string(queue.StageGenerate), m.stages.Generate},
		{string(queue.StageAssemble), m.stages.Assemble},
		{string(queue.StagePublish), m.stages.Publish},
	}
	checks := make([]stage.Health, 0, len(executors))
	for _, e := range executors {
		if checker, ok := e.impl.(stage.HealthChecker); ok {
			checks = append(checks, checker.HealthCheck(ctx))
			continue
		}
		checks = append(checks, stage.Healthy(e.name))
	}
	return checks
}
