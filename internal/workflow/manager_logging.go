package workflow

import (
	"context"
	"log/slog"

	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

// stageLogger scopes logger to the stage carried by ctx, applying any level
// override configured for that stage.
func (m *Manager) stageLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = m.logger
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		logger = logging.ForStage(logger, m.cfg, stage)
	}
	return logging.WithContext(ctx, logger)
}

func withJobContext(ctx context.Context, job *jobs.Job, requestID string) context.Context {
	ctx = services.WithJobID(ctx, job.ID)
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

func withTaskContext(ctx context.Context, index int, stageName string) context.Context {
	return services.WithStage(services.WithTaskIndex(ctx, index), stageName)
}
