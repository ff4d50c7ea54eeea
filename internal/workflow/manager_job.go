package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media"
	"mediaflow/internal/services"
	"mediaflow/internal/stage"
)

// Warning codes recorded against media that never reach a task.
const (
	CodeInspectionFailed = "INSPECTION_FAILED"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA"
)

// processJob runs the tasks of a claimed job starting at its current task.
// Cancellation is honored between tasks. A shutdown leaves the job in
// progress so the next daemon start resumes it.
func (m *Manager) processJob(ctx context.Context, workerLogger *slog.Logger, job *jobs.Job) error {
	set := m.stageSet()
	jobCtx := withJobContext(ctx, job, uuid.NewString())
	logger := logging.WithContext(jobCtx, workerLogger)
	started := time.Now()

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("job_uuid", job.UUID),
		logging.String("pipeline", job.PipelineName),
		logging.Int("current_task", job.CurrentTask),
		logging.Int("tasks", len(job.Pipeline.Tasks)),
	)
	m.setLastJob(job)

	hbCtx, hbCancel := context.WithCancel(jobCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)
	defer func() {
		hbCancel()
		hbWG.Wait()
	}()

	all, err := m.store.MediaForJob(jobCtx, job.ID)
	if err != nil {
		return m.handleJobFailure(jobCtx, logger, job, services.Wrap(services.ErrTransient, "workflow", "load media", "Could not read job media", err))
	}
	if err := m.inspectMedia(jobCtx, logger, set.Inspector, job, all); err != nil {
		if interrupted(ctx, err) {
			logger.Debug("job interrupted by shutdown")
			return err
		}
		return m.handleJobFailure(jobCtx, logger, job, err)
	}

	outputDir := strings.TrimSpace(job.OutputDir)
	if outputDir == "" {
		outputDir = m.cfg.Paths.OutputDir
	}

	for idx := job.CurrentTask; idx < len(job.Pipeline.Tasks); idx++ {
		if stop, err := m.cancelRequested(jobCtx, logger, job); stop || err != nil {
			return err
		}
		active := activeMedia(all)
		if len(active) == 0 {
			logging.WarnWithContext(logger, "no media left to process", "job_no_media",
				logging.Int(logging.FieldTaskIndex, idx),
				logging.String(logging.FieldImpact, "remaining tasks skipped"),
			)
			break
		}
		if err := m.runTask(jobCtx, logger, set, job, active, idx, outputDir); err != nil {
			if interrupted(ctx, err) {
				logger.Debug("job interrupted by shutdown", logging.Int(logging.FieldTaskIndex, idx))
				return err
			}
			return m.handleJobFailure(jobCtx, logger, job, err)
		}
		job.CurrentTask = idx + 1
		if err := m.store.UpdateJob(jobCtx, job); err != nil {
			return m.handleJobFailure(jobCtx, logger, job, services.Wrap(services.ErrTransient, "workflow", "persist progress", "Could not record task completion", err))
		}
		m.setLastJob(job)
	}

	if stop, err := m.cancelRequested(jobCtx, logger, job); stop || err != nil {
		return err
	}
	return m.completeJob(jobCtx, logger, job, started)
}

func (m *Manager) runTask(ctx context.Context, logger *slog.Logger, set StageSet, job *jobs.Job, active []*jobs.Media, idx int, outputDir string) error {
	pt := job.Pipeline.Tasks[idx]
	handler, name := set.handlerFor(pt.Type())
	if handler == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "resolve stage",
			fmt.Sprintf("No handler registered for %s task %d", pt.Type(), idx), nil)
	}

	taskCtx := withTaskContext(ctx, idx, name)
	taskLogger := m.stageLogger(taskCtx, logger)
	task := &stage.Task{Job: job, Media: active, TaskIndex: idx, OutputDir: outputDir}

	started := time.Now()
	taskLogger.Info("task started",
		logging.String(logging.FieldEventType, "task_start"),
		logging.String("task_name", pt.Name),
		logging.Int("actions", len(pt.Actions)),
		logging.Int("media", len(active)),
	)
	if err := handler.Prepare(taskCtx, task); err != nil {
		return err
	}
	if err := handler.Execute(taskCtx, task); err != nil {
		return err
	}
	taskLogger.Info("task completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.String("task_name", pt.Name),
		logging.Duration("task_duration", time.Since(started)),
	)
	return nil
}

// inspectMedia fills in the metadata of media not inspected yet. Media that
// cannot be inspected, or whose type cannot be processed, are marked failed
// and the job continues without them.
func (m *Manager) inspectMedia(ctx context.Context, logger *slog.Logger, inspector Inspector, job *jobs.Job, all []*jobs.Media) error {
	for _, md := range all {
		if md.Failed || md.MIMEType != "" {
			continue
		}
		if inspector == nil {
			return services.Wrap(services.ErrConfiguration, "workflow", "inspect media", "No media inspector configured", nil)
		}
		mediaCtx := services.WithMediaID(ctx, md.ID)
		mediaLogger := logging.WithContext(mediaCtx, logger)

		result, err := inspector.Inspect(mediaCtx, md.Path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := m.failMedia(mediaCtx, mediaLogger, job, md, CodeInspectionFailed, err.Error()); err != nil {
				return err
			}
			continue
		}
		result.Apply(md)
		if md.Type == media.KindUnknown {
			message := fmt.Sprintf("Media type %q is not supported", result.MIMEType)
			if err := m.failMedia(mediaCtx, mediaLogger, job, md, CodeUnsupportedMedia, message); err != nil {
				return err
			}
			continue
		}
		if err := m.store.UpdateMedia(mediaCtx, md); err != nil {
			return services.Wrap(services.ErrTransient, "workflow", "persist media", "Could not store media metadata", err)
		}
		mediaLogger.Debug("media inspected",
			logging.String("mime_type", md.MIMEType),
			logging.String("media_type", string(md.Type)),
			logging.Int("frames", md.FrameCount),
			logging.Int("duration_ms", md.DurationMs),
		)
	}
	return nil
}

func (m *Manager) failMedia(ctx context.Context, logger *slog.Logger, job *jobs.Job, md *jobs.Media, code, message string) error {
	stage.RecordMediaError(ctx, m.store, logger, job.ID, md.ID, code, message)
	md.Failed = true
	md.ErrorMessage = message
	if err := m.store.UpdateMedia(ctx, md); err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "persist media", "Could not mark media failed", err)
	}
	return nil
}

// cancelRequested finishes the job as cancelled when its cancel flag is set.
// stop reports whether the caller must return.
func (m *Manager) cancelRequested(ctx context.Context, logger *slog.Logger, job *jobs.Job) (stop bool, err error) {
	requested, err := m.store.CancelRequested(ctx, job.ID)
	if err != nil {
		return true, m.handleJobFailure(ctx, logger, job, services.Wrap(services.ErrTransient, "workflow", "check cancel", "Could not read cancel flag", err))
	}
	if !requested {
		return false, nil
	}
	job.CancelRequested = true
	m.finishJob(ctx, logger, job, jobs.StatusCancelled, jobs.CancelReason)
	logger.Info("job cancelled",
		logging.String(logging.FieldEventType, "job_cancelled"),
		logging.Int("current_task", job.CurrentTask),
	)
	return true, nil
}

func (m *Manager) completeJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, started time.Time) error {
	counts, err := m.store.CountWarnings(ctx, job.ID)
	if err != nil {
		return m.handleJobFailure(ctx, logger, job, services.Wrap(services.ErrTransient, "workflow", "count warnings", "Could not read job warnings", err))
	}
	status := jobs.CompletionStatus(counts)
	m.finishJob(ctx, logger, job, status, "")
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("status", string(status)),
		logging.Int("warnings", counts.Warnings),
		logging.Int("errors", counts.Errors),
		logging.Duration("job_duration", time.Since(started)),
	)
	return nil
}

func activeMedia(all []*jobs.Media) []*jobs.Media {
	out := make([]*jobs.Media, 0, len(all))
	for _, md := range all {
		if !md.Failed {
			out = append(out, md)
		}
	}
	return out
}

func interrupted(parent context.Context, err error) bool {
	return parent.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, services.ErrCancelled))
}
