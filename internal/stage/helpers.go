package stage

import (
	"context"
	"fmt"
	"log/slog"

	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/props"
	"mediaflow/internal/services"
)

// WarningRecorder persists non-fatal job notes.
type WarningRecorder interface {
	AddWarning(ctx context.Context, w jobs.Warning) error
}

// RecordWarnings stores property warnings against a medium. Storage
// failures are logged, never returned: a lost warning must not fail a job.
func RecordWarnings(ctx context.Context, store WarningRecorder, logger *slog.Logger, jobID, mediaID int64, warnings []props.Warning) {
	for _, w := range warnings {
		logging.WarnWithContext(logger, "property warning", "property_warning",
			logging.String("code", w.Code),
			logging.String("detail", w.Message),
			logging.String(logging.FieldErrorHint, "fix the job, media or pipeline property"),
			logging.String(logging.FieldImpact, "default value used"),
		)
		err := store.AddWarning(ctx, jobs.Warning{
			JobID:    jobID,
			MediaID:  mediaID,
			Severity: jobs.SeverityWarning,
			Code:     w.Code,
			Message:  w.Message,
		})
		if err != nil {
			logger.Error("failed to record warning", logging.Error(err))
		}
	}
}

// RecordMediaError stores a per-medium failure. The job continues with the
// remaining media.
func RecordMediaError(ctx context.Context, store WarningRecorder, logger *slog.Logger, jobID, mediaID int64, code, message string) {
	logging.ErrorWithContext(logger, "media processing failed", "media_failed",
		logging.Int64(logging.FieldMediaID, mediaID),
		logging.String("code", code),
		logging.String("detail", message),
	)
	err := store.AddWarning(ctx, jobs.Warning{
		JobID:    jobID,
		MediaID:  mediaID,
		Severity: jobs.SeverityError,
		Code:     code,
		Message:  message,
	})
	if err != nil {
		logger.Error("failed to record media error", logging.Error(err))
	}
}

// TaskAt returns the task at index, wrapped as a validation error when the
// pipeline snapshot has no such task or it holds the wrong action type.
func TaskAt(p pipeline.Pipeline, index int, want pipeline.ActionType) (pipeline.Task, error) {
	if index < 0 || index >= len(p.Tasks) {
		return pipeline.Task{}, services.Wrap(services.ErrValidation, "stage", "resolve task",
			fmt.Sprintf("Pipeline %s has no task %d", p.Name, index), nil)
	}
	task := p.Tasks[index]
	if task.Type() != want {
		return pipeline.Task{}, services.Wrap(services.ErrValidation, "stage", "resolve task",
			fmt.Sprintf("Task %d of %s is %s, not %s", index, p.Name, task.Type(), want), nil)
	}
	return task, nil
}
