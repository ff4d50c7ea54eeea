package daemon_test

import (
	"context"
	"testing"

	"mediaflow/internal/config"
	"mediaflow/internal/daemon"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/stage"
	"mediaflow/internal/testsupport"
	"mediaflow/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *stage.Task) error { return nil }
func (noopStage) Execute(context.Context, *stage.Task) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func newDaemon(t *testing.T, cfg *config.Config, store *jobs.Store) *daemon.Daemon {
	t.Helper()
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Detection: noopStage{}})
	d, err := daemon.New(cfg, store, logger, mgr, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected daemon to report running, got %+v", status)
	}
	if status.LockFilePath != cfg.LockPath() || status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected paths %+v", status)
	}
	if len(status.Dependencies) != 1 || status.Dependencies[0].Name != "FFprobe" {
		t.Fatalf("unexpected dependencies %+v", status.Dependencies)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	other := newDaemon(t, cfg, store)
	if err := other.Start(ctx); err == nil {
		t.Fatal("expected second instance to fail on the lock")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if err := other.Start(ctx); err != nil {
		t.Fatalf("expected lock to be released: %v", err)
	}
}

func TestDaemonStartFailsPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected missing directories to fail preflight")
	}
	if d.Running() {
		t.Fatal("daemon should not be running")
	}
}

func TestDaemonStartRequeuesInterruptedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "FACE DETECTION", "a.mp4")
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if _, err := store.RequestCancel(ctx, job.ID); err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}

	d := newDaemon(t, cfg, store)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := d.Jobs().Describe(ctx, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Describe: %v %v", got, err)
	}
	if got.Status != string(jobs.StatusCancelled) {
		t.Fatalf("expected interrupted cancel-flagged job to be cancelled, got %s", got.Status)
	}
}
