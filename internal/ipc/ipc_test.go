package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mediaflow/internal/api"
	"mediaflow/internal/daemon"
	"mediaflow/internal/ipc"
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

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Detection: noopStage{}})
	d, err := daemon.New(cfg, store, logger, mgr, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not run before Start")
	}

	clip := filepath.Join(t.TempDir(), "clip.png")
	testsupport.WritePNG(t, clip)
	submitted, err := client.JobSubmit(ipc.JobSubmitRequest{
		Pipeline: "FACE DETECTION",
		Media:    []api.SubmitMedia{{Path: clip}},
	})
	if err != nil {
		t.Fatalf("JobSubmit RPC failed: %v", err)
	}
	id := submitted.Job.ID

	if _, err := client.JobSubmit(ipc.JobSubmitRequest{Pipeline: "missing"}); err == nil {
		t.Fatal("expected unknown pipeline to fail")
	}

	list, err := client.JobList([]string{"pending"})
	if err != nil {
		t.Fatalf("JobList RPC failed: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ID != id {
		t.Fatalf("unexpected jobs %+v", list.Jobs)
	}

	desc, err := client.JobDescribe(id)
	if err != nil {
		t.Fatalf("JobDescribe RPC failed: %v", err)
	}
	if !desc.Found || len(desc.Job.Media) != 1 || desc.Job.Media[0].Path != clip {
		t.Fatalf("unexpected description %+v", desc)
	}
	missing, err := client.JobDescribe(id + 100)
	if err != nil || missing.Found {
		t.Fatalf("expected missing job, got %+v %v", missing, err)
	}

	cancelResp, err := client.JobCancel(id)
	if err != nil || !cancelResp.Cancelled {
		t.Fatalf("JobCancel: %+v %v", cancelResp, err)
	}
	cleared, err := client.JobClearFinished()
	if err != nil || cleared.Removed != 1 {
		t.Fatalf("JobClearFinished: %+v %v", cleared, err)
	}

	health, err := client.DatabaseHealth()
	if err != nil {
		t.Fatalf("DatabaseHealth RPC failed: %v", err)
	}
	if !health.DatabaseExists || health.TotalJobs != 0 {
		t.Fatalf("unexpected database health %+v", health)
	}

	startResp, err := client.Start()
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}
	status, err = client.Status()
	if err != nil || !status.Running {
		t.Fatalf("expected running daemon, got %+v %v", status, err)
	}
	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
}
