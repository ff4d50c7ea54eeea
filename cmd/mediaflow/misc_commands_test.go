package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaflow/internal/api"
	"mediaflow/internal/logging"
	"mediaflow/internal/pipeline"
)

func TestPipelinesCommand(t *testing.T) {
	env := setupOfflineCLITestEnv(t)

	out, _, err := runCLI(t, []string{"pipelines"}, env.configPath)
	if err != nil {
		t.Fatalf("pipelines: %v", err)
	}
	requireContains(t, out, "FACE DETECTION WITH MARKUP")
	requireContains(t, out, "PERSON -> FACECV -> MARKUP")

	out, _, err = runCLI(t, []string{"pipelines", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("pipelines --json: %v", err)
	}
	var list []pipeline.Pipeline
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode pipelines: %v", err)
	}
	if len(list) != len(pipeline.DefaultCatalog().Pipelines()) {
		t.Fatalf("expected the built-in catalog, got %d pipelines", len(list))
	}
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupOfflineCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.DataDir)
}

func TestStatusCommandOffline(t *testing.T) {
	env := setupOfflineCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== System Status ==")
	requireContains(t, out, "Not running")
	requireContains(t, out, "== Job Status ==")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to be reported as stopped")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	env := setupOfflineCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestLogsCommandFilters(t *testing.T) {
	env := setupOfflineCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	records := []string{
		`{"level":"INFO","msg":"job claimed","component":"workflow","job_id":1}`,
		`{"level":"WARN","msg":"segment skipped","component":"detection","job_id":2}`,
		`{"level":"ERROR","msg":"render failed","component":"markup","job_id":2}`,
		"not json",
	}
	if err := os.WriteFile(path, []byte(strings.Join(records, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "job claimed")
	requireContains(t, out, "not json")

	out, _, err = runCLI(t, []string{"logs", "--job", "2", "--level", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("logs filtered: %v", err)
	}
	requireContains(t, out, "render failed")
	if strings.Contains(out, "segment skipped") || strings.Contains(out, "job claimed") {
		t.Fatalf("filter leaked records: %s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "1", "--component", "detection"}, env.configPath)
	if err != nil {
		t.Fatalf("logs by component: %v", err)
	}
	if strings.TrimSpace(out) != records[1] {
		t.Fatalf("unexpected component output %q", out)
	}
}
