package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mediaflow/internal/api"
	"mediaflow/internal/daemonctl"
	"mediaflow/internal/jobs"
	"mediaflow/internal/testsupport"
)

func TestBuildDependencySummary(t *testing.T) {
	cases := []struct {
		name     string
		deps     []api.DependencyStatus
		severity string
		detail   string
	}{
		{name: "none", severity: "info", detail: "No dependency checks configured"},
		{
			name:     "all available",
			deps:     []api.DependencyStatus{{Name: "FFprobe", Available: true}},
			severity: "ok",
			detail:   "1/1 available",
		},
		{
			name:     "optional missing",
			deps:     []api.DependencyStatus{{Name: "FFprobe", Available: true}, {Name: "extra", Optional: true}},
			severity: "warn",
			detail:   "1/2 available (missing: 0 required, 1 optional)",
		},
		{
			name:     "required missing",
			deps:     []api.DependencyStatus{{Name: "FFprobe"}},
			severity: "error",
			detail:   "0/1 available (missing: 1 required, 0 optional)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := daemonctl.BuildDependencySummary(tc.deps)
			if got.Severity != tc.severity || got.Detail != tc.detail {
				t.Fatalf("got %+v, want severity %q detail %q", got, tc.severity, tc.detail)
			}
		})
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	empty, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if empty.Running || empty.Workflow.JobStats[string(jobs.StatusPending)] != 0 {
		t.Fatalf("unexpected offline status %+v", empty)
	}

	store := testsupport.MustOpenStore(t, cfg)
	clip := filepath.Join(t.TempDir(), "a.mp4")
	testsupport.WriteMP4(t, clip)
	testsupport.NewJob(t, store, "FACE DETECTION", clip)

	status, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("offline snapshot must not report running")
	}
	if got := status.Workflow.JobStats[string(jobs.StatusPending)]; got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency checks in offline snapshot")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemonctl.Stop(cfg, 0); !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestReadPID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.WriteFile(cfg.PIDPath(), []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := daemonctl.ReadPID(cfg.PIDPath())
	if err != nil || pid != 4242 {
		t.Fatalf("ReadPID = %d, %v", pid, err)
	}
	if err := os.WriteFile(cfg.PIDPath(), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ReadPID(cfg.PIDPath()); err == nil {
		t.Fatal("expected invalid pid error")
	}
}
