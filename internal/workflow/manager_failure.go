package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

// handleJobFailure records a task error as the terminal status of the job.
// It returns nil so the worker moves on to the next job.
func (m *Manager) handleJobFailure(ctx context.Context, logger *slog.Logger, job *jobs.Job, jobErr error) error {
	status := services.FailureStatus(jobErr)
	message := classifyFailure(jobErr)

	attrs := []logging.Attr{
		logging.String("resolved_status", string(status)),
		logging.String("error_message", message),
		logging.Int("current_task", job.CurrentTask),
		logging.Error(jobErr),
	}
	if hint := services.ErrorHint(jobErr); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	logging.ErrorWithContext(logger, "job failed", "job_failure", attrs...)

	m.setLastError(jobErr)
	m.finishJob(ctx, logger, job, status, message)
	return nil
}

// finishJob persists a terminal status. The heartbeat is cleared so the job
// is never reclaimed.
func (m *Manager) finishJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, status jobs.Status, message string) {
	job.Status = status
	job.ErrorMessage = message
	job.LastHeartbeat = nil
	if err := m.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist job status")
		} else {
			logger.Error("failed to persist job status",
				logging.String("status", string(status)),
				logging.Error(err),
			)
		}
	}
	m.setLastJob(job)
}

func classifyFailure(err error) string {
	if err == nil {
		return "workflow failed without error detail"
	}
	if message := strings.TrimSpace(err.Error()); message != "" {
		return message
	}
	return "workflow failed"
}
