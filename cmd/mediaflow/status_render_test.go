package main

import (
	"fmt"
	"strings"
	"testing"

	"mediaflow/internal/api"
	"mediaflow/internal/pipeline"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	deps := []api.DependencyStatus{
		{Name: "FFprobe", Command: "ffprobe", Available: true},
		{Name: "Sidecar", Available: false, Optional: true, Detail: "not installed"},
	}
	lines := dependencyLines(deps, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Summary") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] ffprobe") {
		t.Fatalf("expected ready line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[WARN] not installed") {
		t.Fatalf("expected optional warning, got %q", lines[2])
	}
}

func TestDaemonLinesRunning(t *testing.T) {
	status := &api.DaemonStatus{
		Running: true,
		PID:     42,
		Workflow: api.WorkflowStatus{
			Workers:     2,
			LastError:   "boom",
			StageHealth: []api.StageHealth{{Name: "detection", Ready: false, Detail: "no bus"}},
		},
		Bus: api.BusStats{Published: 3, Delivered: 2},
	}
	joined := strings.Join(daemonLines(status, false), "\n")
	for _, want := range []string{"Running (pid 42)", "[ERROR] boom", "Stage detection", "[ERROR] no bus", "3 published, 2 delivered"} {
		requireContains(t, joined, want)
	}
}

func TestBuildJobStatusRowsOrdersByLifecycle(t *testing.T) {
	rows := buildJobStatusRows(map[string]int{"complete": 2, "pending": 1, "error": 0})
	if len(rows) != 2 {
		t.Fatalf("expected zero counts dropped, got %v", rows)
	}
	if rows[0][0] != "pending" || rows[1][0] != "complete" {
		t.Fatalf("unexpected order %v", rows)
	}
}

func TestDescribeTasks(t *testing.T) {
	catalog := pipeline.DefaultCatalog()
	p, err := catalog.Lookup("PERSON THEN FEED FORWARD FACE WITH MARKUP")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := describeTasks(p); got != "PERSON -> FACECV -> MARKUP" {
		t.Fatalf("describeTasks = %q", got)
	}
}
