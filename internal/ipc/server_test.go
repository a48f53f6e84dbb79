package ipc_test

import (
	"context"
	"os"
	"testing"
	"time"

	"pageforge/internal/config"
	"pageforge/internal/daemon"
	"pageforge/internal/ipc"
	"pageforge/internal/logging"
	"pageforge/internal/queue"
	"pageforge/internal/stage"
	"pageforge/internal/testsupport"
	"pageforge/internal/workflow"
)

type okResearch struct{}

func (okResearch) Run(ctx context.Context, task *queue.Task) (stage.ResearchResult, error) {
	return stage.ResearchResult{Keywords: []string{"emergency plumber"}}, nil
}

type okGenerate struct{}

func (okGenerate) Run(ctx context.Context, task *queue.Task, research stage.ResearchResult) (stage.ContentResult, error) {
	return stage.ContentResult{Title: "Page", Sections: []string{"body"}}, nil
}

type okAssemble struct{}

func (okAssemble) Run(ctx context.Context, task *queue.Task, content stage.ContentResult) (stage.AssembleResult, error) {
	return stage.AssembleResult{HTMLPath: "/staging/" + task.ID + ".html", Fingerprint: "pf-" + task.ID}, nil
}

type okPublish struct{}

func (okPublish) Publish(ctx context.Context, task *queue.Task, htmlPath, idempotencyKey string) (stage.PublishResult, error) {
	return stage.PublishResult{PublishedURL: "https://example.com/" + task.ID + "/"}, nil
}

func (okPublish) Verify(ctx context.Context, publishedURL, fingerprint string) (bool, error) {
	return true, nil
}

func (okPublish) Rollback(ctx context.Context, task *queue.Task) error { return nil }

func newDaemon(t *testing.T) (*daemon.Daemon, *config.Config, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	m, err := workflow.NewManager(workflow.Options{
		Config: cfg,
		Store:  store,
		Stages: workflow.Stages{
			Research: okResearch{},
			Generate: okGenerate{},
			Assemble: okAssemble{},
			Publish:  okPublish{},
		},
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	d, err := daemon.New(cfg, store, logging.NewNop(), m)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d, cfg, store
}

func dialServer(t *testing.T, cfg *config.Config, d *daemon.Daemon) *ipc.Client {
	t.Helper()
	srv, err := ipc.NewServer(context.Background(), cfg.SocketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.SocketPath)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestServerRoundTrip(t *testing.T) {
	d, cfg, _ := newDaemon(t)
	client := dialServer(t, cfg, d)

	seeded, err := client.Seed()
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if seeded.Pairs == 0 {
		t.Fatal("seed produced no tasks")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Running {
		t.Fatal("Running = true before Start")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("PID = %d, want %d", status.PID, os.Getpid())
	}
	if status.QueueStats["pending"] != seeded.Pairs {
		t.Fatalf("pending = %d, want %d", status.QueueStats["pending"], seeded.Pairs)
	}
	if status.QueueDBPath == "" || status.LockPath == "" {
		t.Fatalf("paths missing: %+v", status)
	}
	if len(status.Stages) != 4 {
		t.Fatalf("stage health entries = %d, want 4", len(status.Stages))
	}
	for _, h := range status.Stages {
		if !h.Ready {
			t.Fatalf("stage %s not ready: %s", h.Name, h.Detail)
		}
	}

	list, err := client.QueueList(nil)
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(list.Tasks) != seeded.Pairs {
		t.Fatalf("listed %d tasks, want %d", len(list.Tasks), seeded.Pairs)
	}

	published, err := client.QueueList([]string{"published"})
	if err != nil {
		t.Fatalf("QueueList(published) failed: %v", err)
	}
	if len(published.Tasks) != 0 {
		t.Fatalf("published tasks = %d, want 0", len(published.Tasks))
	}

	described, err := client.QueueDescribe(list.Tasks[0].ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if described.Task.ID != list.Tasks[0].ID {
		t.Fatalf("described id = %q, want %q", described.Task.ID, list.Tasks[0].ID)
	}
	if described.Task.Status != "pending" {
		t.Fatalf("described status = %q", described.Task.Status)
	}

	if _, err := client.QueueDescribe("no_such_task"); err == nil {
		t.Fatal("expected error for unknown task")
	}
	if _, err := client.QueueDescribe(""); err == nil {
		t.Fatal("expected error for empty task id")
	}
}

func TestQueueRetryAndResetOverIPC(t *testing.T) {
	d, cfg, store := newDaemon(t)
	client := dialServer(t, cfg, d)

	ctx := context.Background()
	failedTask := testsupport.NewTask(t, store, "plumber", "33442")
	erroredTask := testsupport.NewTask(t, store, "electrician", "90210")

	lease := time.Now().Add(time.Minute)
	if claimed, err := store.Claim(ctx, failedTask, queue.StageResearch, "owner-1", lease); err != nil || !claimed {
		t.Fatalf("claim failed: claimed=%v err=%v", claimed, err)
	}
	if err := store.Fail(ctx, failedTask, "retries exhausted"); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if claimed, err := store.Claim(ctx, erroredTask, queue.StageResearch, "owner-2", lease); err != nil || !claimed {
		t.Fatalf("claim failed: claimed=%v err=%v", claimed, err)
	}
	if err := store.MarkError(ctx, erroredTask, "bad catalog entry"); err != nil {
		t.Fatalf("MarkError failed: %v", err)
	}

	retried, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retried.Updated != 1 {
		t.Fatalf("retried = %d, want 1", retried.Updated)
	}

	reset, err := client.QueueReset([]string{erroredTask.ID})
	if err != nil {
		t.Fatalf("QueueReset failed: %v", err)
	}
	if reset.Updated != 1 {
		t.Fatalf("reset = %d, want 1", reset.Updated)
	}

	for _, id := range []string{failedTask.ID, erroredTask.ID} {
		task, err := store.GetByID(ctx, id)
		if err != nil || task == nil {
			t.Fatalf("GetByID(%s) failed: %v", id, err)
		}
		if task.Status != queue.StatusPending {
			t.Fatalf("%s: status = %s, want pending", id, task.Status)
		}
	}
}

func TestStartStopOverIPC(t *testing.T) {
	d, cfg, _ := newDaemon(t)
	t.Cleanup(d.Stop)
	client := dialServer(t, cfg, d)

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started.Started {
		t.Fatalf("Started = false: %s", started.Message)
	}

	again, err := client.Start()
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if again.Started {
		t.Fatal("second Start should be rejected while running")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running {
		t.Fatal("Running = false after Start")
	}

	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopped.Stopped {
		t.Fatal("Stopped = false")
	}

	notify, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notify.Sent {
		t.Fatal("Sent = true without an ntfy topic")
	}
}
