package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mediaflow/internal/config"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media/inspect"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/stage"
)

// Inspector reads the metadata of a medium before its first task runs.
type Inspector interface {
	Inspect(ctx context.Context, path string) (inspect.Result, error)
}

// StageSet holds the handlers the manager dispatches tasks to, keyed by the
// action type of the task.
type StageSet struct {
	Inspector Inspector
	Detection stage.Handler
	Markup    stage.Handler
}

// Manager claims jobs from the store and runs their pipeline tasks in order.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration

	heartbeat *HeartbeatMonitor

	mu      sync.RWMutex
	stages  StageSet
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *jobs.Job
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow-manager")
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	m.stages = set
	m.mu.Unlock()
}

func (m *Manager) stageSet() StageSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stages
}

// handlerFor returns the handler and stage name serving tasks of kind.
func (set StageSet) handlerFor(kind pipeline.ActionType) (stage.Handler, string) {
	switch kind {
	case pipeline.ActionDetection:
		return set.Detection, "detection"
	case pipeline.ActionMarkup:
		return set.Markup, "markup"
	}
	return nil, ""
}

func (set StageSet) named() map[string]stage.Handler {
	out := make(map[string]stage.Handler, 2)
	if set.Detection != nil {
		out["detection"] = set.Detection
	}
	if set.Markup != nil {
		out["markup"] = set.Markup
	}
	return out
}
