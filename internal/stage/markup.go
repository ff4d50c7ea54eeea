package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediaflow/internal/bus"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/logging"
	"mediaflow/internal/markup"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/services"
)

// CodeMarkupFailed marks a medium the renderer could not paint.
const CodeMarkupFailed = "MARKUP_FAILED"

// Renderer sends one markup request and waits for its response.
type Renderer interface {
	Render(ctx context.Context, req bus.MarkupRequest) (bus.MarkupResponse, error)
}

// Markup runs the markup task that ends a pipeline.
type Markup struct {
	store    TrackStore
	renderer Renderer
	defaults markup.Options
	logger   *slog.Logger
}

// NewMarkup builds the markup handler. defaults are the label and encoder
// options used when no property overrides them.
func NewMarkup(store TrackStore, renderer Renderer, defaults markup.Options, logger *slog.Logger) *Markup {
	h := &Markup{store: store, renderer: renderer, defaults: defaults}
	h.SetLogger(logger)
	return h
}

// SetLogger swaps the handler logger, letting the workflow inject job-scoped loggers.
func (h *Markup) SetLogger(logger *slog.Logger) {
	h.logger = logging.NewComponentLogger(logger, "markup")
}

// Prepare checks that the task is a markup task preceded by a detection task.
func (h *Markup) Prepare(_ context.Context, task *Task) error {
	if _, err := TaskAt(task.Job.Pipeline, task.TaskIndex, pipeline.ActionMarkup); err != nil {
		return err
	}
	if _, ok := task.Job.Pipeline.PreviousDetectionTask(task.TaskIndex); !ok {
		return services.Wrap(services.ErrValidation, "markup", "resolve source", "Markup task has no detection task before it", nil)
	}
	if strings.TrimSpace(task.OutputDir) == "" {
		return services.Wrap(services.ErrConfiguration, "markup", "resolve output", "No output directory configured", nil)
	}
	return nil
}

// Execute builds a box map from the previous detection task's tracks for
// each medium and renders it. Each medium gets a fresh color sequence so
// its colors do not depend on the other media of the job.
func (h *Markup) Execute(ctx context.Context, task *Task) error {
	if err := h.Prepare(ctx, task); err != nil {
		return err
	}
	job := task.Job
	action := job.Pipeline.Tasks[task.TaskIndex].Actions[0]
	source, _ := job.Pipeline.PreviousDetectionTask(task.TaskIndex)
	logger := logging.WithContext(ctx, h.logger)

	rendered := 0
	for _, m := range task.Media {
		properties := dispatch.CombinedProperties(action, job, m)
		opts, warnings := markup.ParseOptions(properties, h.defaults)

		tracks, err := h.store.Tracks(ctx, job.ID, m.ID, source)
		if err != nil {
			return services.Wrap(services.ErrTransient, "markup", "load tracks", "Could not read detection tracks", err)
		}
		boxes, err := markup.BuildMap(tracks, opts, markup.NewColorSequence())
		if err != nil {
			RecordWarnings(ctx, h.store, logger, job.ID, m.ID, warnings)
			return services.Wrap(nil, "markup", "build box map", fmt.Sprintf("Tracks of media %d are inconsistent", m.ID), err)
		}

		destination, extWarnings := dispatch.MarkupDestination(task.OutputDir, job, m, opts.VideoEncoder)
		RecordWarnings(ctx, h.store, logger, job.ID, m.ID, append(warnings, extWarnings...))
		if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "markup", "create output dir", "Could not create markup directory", err)
		}

		req := dispatch.MarkupRequest(job, m, task.TaskIndex, boxes, destination, opts, properties)
		resp, err := h.renderer.Render(ctx, req)
		if err != nil {
			return err
		}
		if msg := strings.TrimSpace(resp.Error); msg != "" {
			RecordMediaError(ctx, h.store, logger, job.ID, m.ID, CodeMarkupFailed, msg)
			m.Failed = true
			m.ErrorMessage = msg
		} else {
			m.MarkupPath = resp.OutputPath
			rendered++
		}
		if err := h.store.UpdateMedia(ctx, m); err != nil {
			return services.Wrap(services.ErrTransient, "markup", "persist media", "Could not store markup result", err)
		}
		logger.Debug("media rendered",
			logging.Int64(logging.FieldMediaID, m.ID),
			logging.Int("tracks", len(tracks)),
			logging.Int("frames", len(boxes.Frames())),
			logging.Int("spans", len(boxes.Spans())),
			logging.String("destination", destination),
		)
	}
	logger.Info("markup complete",
		logging.String(logging.FieldEventType, "markup_complete"),
		logging.Int("rendered", rendered),
		logging.Int("media", len(task.Media)),
	)
	return nil
}

// HealthCheck reports whether a renderer is wired.
func (h *Markup) HealthCheck(context.Context) Health {
	if h.renderer == nil {
		return Unhealthy("markup", "renderer unavailable")
	}
	return Healthy("markup")
}
