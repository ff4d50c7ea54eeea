// Package daemonrun assembles the daemon runtime: logger, job store, bus,
// built-in workers, workflow stages, IPC server and the daemon itself.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mediaflow/internal/bus"
	"mediaflow/internal/config"
	"mediaflow/internal/daemon"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/ipc"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media/inspect"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/preflight"
	"mediaflow/internal/stage"
	"mediaflow/internal/workers"
	"mediaflow/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// DisableWorkers skips the in-process detector and renderer workers,
	// leaving the bus to external consumers.
	DisableWorkers bool
}

// Run starts the mediaflow daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logDependencySnapshot(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	catalog, err := pipeline.LoadCatalog(cfg.Paths.PipelinesFile)
	if err != nil {
		return fmt.Errorf("load pipelines: %w", err)
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	b := bus.NewMemory(cfg.Bus.BufferSize)
	defer b.Close()

	var pool *workers.Pool
	if !opts.DisableWorkers {
		pool = workers.Start(signalCtx, b, catalogAlgorithms(catalog), cfg.Workflow.Workers, logger)
	}

	dispatcher := dispatch.New(b, time.Duration(cfg.Workflow.TaskTimeout)*time.Second, logger)
	manager := workflow.NewManager(cfg, store, logger)
	registerStages(manager, cfg, store, dispatcher, logger)

	d, err := daemon.New(cfg, store, logger, manager, catalog, b)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration and job database access"),
			logging.String(logging.FieldImpact, "daemon will not process jobs until started"),
		)
	}

	<-signalCtx.Done()
	logger.Info("mediaflow daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	d.Stop()
	_ = b.Close()
	if pool != nil {
		pool.Wait()
	}
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *jobs.Store, dispatcher *dispatch.Dispatcher, logger *slog.Logger) {
	mgr.ConfigureStages(workflow.StageSet{
		Inspector: inspect.New(cfg),
		Detection: stage.NewDetection(store, dispatcher, cfg.SegmentSettings(), logger),
		Markup:    stage.NewMarkup(store, dispatcher, cfg.MarkupOptions(), logger),
	})
}

// catalogAlgorithms lists every detection algorithm named by the catalog.
func catalogAlgorithms(catalog *pipeline.Catalog) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range catalog.Pipelines() {
		for _, algo := range p.Algorithms() {
			if _, ok := seen[algo]; ok {
				continue
			}
			seen[algo] = struct{}{}
			out = append(out, algo)
		}
	}
	return out
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_binary", status.Command),
		)
	}
	attrs = append(attrs,
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("output_dir", cfg.Paths.OutputDir),
		logging.Int("workers", cfg.Workflow.Workers),
	)
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
