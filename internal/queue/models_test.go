package queue_test

import (
	"testing"
	"time"

	"pageforge/internal/queue"
)

func TestStageTransitionChain(t *testing.T) {
	chain := []struct {
		stage queue.Stage
		entry queue.Status
		done  queue.Status
	}{
		{queue.StageResearch, queue.StatusPending, queue.StatusResearchComplete},
		{queue.StageGenerate, queue.StatusResearchComplete, queue.StatusContentComplete},
		{queue.StageAssemble, queue.StatusContentComplete, queue.StatusAssemblyComplete},
		{queue.StagePublish, queue.StatusAssemblyComplete, queue.StatusPublished},
	}
	for i, link := range chain {
		if got := link.stage.EntryStatus(); got != link.entry {
			t.Fatalf("%s entry = %s, want %s", link.stage, got, link.entry)
		}
		if got := link.stage.DoneStatus(); got != link.done {
			t.Fatalf("%s done = %s, want %s", link.stage, got, link.done)
		}
		// Each stage's done status feeds the next stage's entry.
		if i < len(chain)-1 && link.done != chain[i+1].entry {
			t.Fatalf("chain broken between %s and %s", link.stage, chain[i+1].stage)
		}
		mapped, ok := queue.StageForStatus(link.entry)
		if !ok || mapped != link.stage {
			t.Fatalf("StageForStatus(%s) = %s, %v", link.entry, mapped, ok)
		}
	}
	if got := queue.Stages(); len(got) != 4 || got[0] != queue.StageResearch || got[3] != queue.StagePublish {
		t.Fatalf("unexpected stage order: %v", got)
	}
}

func TestStageForStatusRejectsNonEntry(t *testing.T) {
	for _, status := range []queue.Status{queue.StatusInProgress, queue.StatusPublished, queue.StatusFailed, queue.StatusError} {
		if _, ok := queue.StageForStatus(status); ok {
			t.Fatalf("StageForStatus(%s) mapped a non-entry status", status)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Published "); !ok || status != queue.StatusPublished {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("unknown"); ok {
		t.Fatal("ParseStatus accepted unknown status")
	}
	if _, ok := queue.ParseStatus(""); ok {
		t.Fatal("ParseStatus accepted empty status")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[queue.Status]bool{
		queue.StatusPublished: true,
		queue.StatusFailed:    true,
		queue.StatusError:     true,
	}
	for _, status := range queue.AllStatuses() {
		if got := status.IsTerminal(); got != terminal[status] {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, terminal[status])
		}
	}
}

func TestTaskEligible(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	task := &queue.Task{Status: queue.StatusPending}
	if !task.Eligible(now) {
		t.Fatal("pending task with no backoff should be eligible")
	}
	task.NotBefore = &future
	if task.Eligible(now) {
		t.Fatal("task inside backoff window should not be eligible")
	}
	task.NotBefore = &past
	if !task.Eligible(now) {
		t.Fatal("task past backoff window should be eligible")
	}
	task.Status = queue.StatusInProgress
	if task.Eligible(now) {
		t.Fatal("in_progress task should not be eligible")
	}
	var nilTask *queue.Task
	if nilTask.Eligible(now) {
		t.Fatal("nil task should not be eligible")
	}
}
