package stage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mediaflow/internal/bus"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/interval"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/media"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/props"
	"mediaflow/internal/segment"
	"mediaflow/internal/services"
	"mediaflow/internal/track"
)

// CodeDetectionFailed marks a medium whose detector reported an error.
const CodeDetectionFailed = "DETECTION_FAILED"

// Detector sends a batch of detection requests and returns the responses in
// request order.
type Detector interface {
	Detect(ctx context.Context, reqs []bus.DetectionRequest) ([]bus.DetectionResponse, error)
}

// TrackStore is the persistence the detection handler needs.
type TrackStore interface {
	WarningRecorder
	Tracks(ctx context.Context, jobID, mediaID int64, taskIndex int) ([]track.Track, error)
	ReplaceTracks(ctx context.Context, jobID, mediaID int64, taskIndex int, tracks []track.Track) error
	UpdateMedia(ctx context.Context, m *jobs.Media) error
}

// Detection runs detection tasks.
type Detection struct {
	store    TrackStore
	detector Detector
	defaults segment.Settings
	logger   *slog.Logger
}

// NewDetection builds the detection handler. defaults are the segmenting
// values used when no property overrides them.
func NewDetection(store TrackStore, detector Detector, defaults segment.Settings, logger *slog.Logger) *Detection {
	h := &Detection{store: store, detector: detector, defaults: defaults}
	h.SetLogger(logger)
	return h
}

// SetLogger swaps the handler logger, letting the workflow inject job-scoped loggers.
func (h *Detection) SetLogger(logger *slog.Logger) {
	h.logger = logging.NewComponentLogger(logger, "detection")
}

// Prepare checks that the task is a detection task.
func (h *Detection) Prepare(_ context.Context, task *Task) error {
	_, err := TaskAt(task.Job.Pipeline, task.TaskIndex, pipeline.ActionDetection)
	return err
}

// Execute segments every medium for every action of the task, dispatches the
// work and persists the tracks. It returns only after every medium's tracks
// are stored.
func (h *Detection) Execute(ctx context.Context, task *Task) error {
	job := task.Job
	pt, err := TaskAt(job.Pipeline, task.TaskIndex, pipeline.ActionDetection)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, h.logger)
	prevIndex, hasPrev := job.Pipeline.PreviousDetectionTask(task.TaskIndex)

	var reqs []bus.DetectionRequest
	for _, m := range task.Media {
		var upstream []track.Track
		if hasPrev {
			upstream, err = h.store.Tracks(ctx, job.ID, m.ID, prevIndex)
			if err != nil {
				return services.Wrap(services.ErrTransient, "detection", "load tracks", "Could not read previous task tracks", err)
			}
		}
		for ai, action := range pt.Actions {
			ref := dispatch.ActionRef{TaskIndex: task.TaskIndex, ActionIndex: ai, Action: action}
			properties := dispatch.CombinedProperties(action, job, m)
			bag := props.NewBag(properties)
			settings := segment.ParseSettings(bag, h.defaults)

			built, err := h.requests(job, m, ref, settings, hasPrev, upstream, properties, bag)
			RecordWarnings(ctx, h.store, logger, job.ID, m.ID, bag.Warnings())
			if err != nil {
				return services.Wrap(services.ErrValidation, "detection", "segment media",
					fmt.Sprintf("Cannot segment media %d for %s", m.ID, action.Name), err)
			}
			logger.Debug("segments planned",
				logging.Int64(logging.FieldMediaID, m.ID),
				logging.String("action", action.Name),
				logging.String("feed_forward", string(settings.FeedForward)),
				logging.Int("requests", len(built)),
			)
			reqs = append(reqs, built...)
		}
	}

	logger.Info("detection dispatched",
		logging.String(logging.FieldEventType, "detection_dispatch"),
		logging.Int("requests", len(reqs)),
		logging.Int("media", len(task.Media)),
	)
	resps, err := h.detector.Detect(ctx, reqs)
	if err != nil {
		return err
	}

	collected := make(map[int64][]track.Track, len(task.Media))
	failures := make(map[int64][]string)
	for i, resp := range resps {
		req := reqs[i]
		if msg := strings.TrimSpace(resp.Error); msg != "" {
			failures[req.MediaID] = append(failures[req.MediaID], fmt.Sprintf("%s %s: %s", req.Algorithm, req.Segment, msg))
			continue
		}
		for _, t := range resp.Tracks {
			t.JobID = req.JobID
			t.MediaID = req.MediaID
			t.TaskIndex = req.TaskIndex
			t.ActionIndex = req.ActionIndex
			collected[req.MediaID] = append(collected[req.MediaID], t)
		}
	}

	total := 0
	for _, m := range task.Media {
		if msgs, failed := failures[m.ID]; failed {
			message := strings.Join(msgs, "; ")
			RecordMediaError(ctx, h.store, logger, job.ID, m.ID, CodeDetectionFailed, message)
			m.Failed = true
			m.ErrorMessage = message
			if err := h.store.UpdateMedia(ctx, m); err != nil {
				return services.Wrap(services.ErrTransient, "detection", "persist media", "Could not mark media failed", err)
			}
			delete(collected, m.ID)
		}
		if err := h.store.ReplaceTracks(ctx, job.ID, m.ID, task.TaskIndex, collected[m.ID]); err != nil {
			return services.Wrap(nil, "detection", "persist tracks", fmt.Sprintf("Could not store tracks of media %d", m.ID), err)
		}
		total += len(collected[m.ID])
	}
	logger.Info("detection complete",
		logging.String(logging.FieldEventType, "detection_complete"),
		logging.Int("tracks", total),
		logging.Int("failed_media", len(failures)),
	)
	return nil
}

// requests plans the segments of one action over one medium. Feed-forward
// actions segment each upstream track on its own so every request carries
// the track it came from.
func (h *Detection) requests(job *jobs.Job, m *jobs.Media, ref dispatch.ActionRef, settings segment.Settings, hasPrev bool, upstream []track.Track, properties map[string]string, bag *props.Bag) ([]bus.DetectionRequest, error) {
	plan := settings.Plan
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if settings.FeedForward.Enabled() && !hasPrev {
		bag.Add(props.Warning{
			Code:    props.CodeInvalidProperty,
			Message: fmt.Sprintf("%s %s has no earlier detection task; processing the whole medium", segment.PropertyFeedForwardType, settings.FeedForward),
		})
	}

	if hasPrev && settings.FeedForward.Enabled() {
		var out []bus.DetectionRequest
		for i := range upstream {
			t := upstream[i]
			segs, err := segment.CreateFeedForwardSegments(settings.TopConfidenceCount, []track.Track{t}, plan)
			if err != nil {
				return nil, err
			}
			out = append(out, dispatch.DetectionRequests(job, m, ref, segs, &t, properties)...)
		}
		return out, nil
	}

	if hasPrev {
		segs, err := segment.CreateSegments(upstream, plan)
		if err != nil {
			return nil, err
		}
		return dispatch.DetectionRequests(job, m, ref, segs, nil, properties), nil
	}

	segs, err := fullRange(m, plan)
	if err != nil {
		return nil, err
	}
	return dispatch.DetectionRequests(job, m, ref, segs, nil, properties), nil
}

// fullRange covers a whole medium: audio as one millisecond segment, images
// as frame 0, video windowed over every frame.
func fullRange(m *jobs.Media, plan segment.Plan) ([]segment.Segment, error) {
	switch m.Type {
	case media.KindAudio:
		if m.DurationMs <= 0 {
			return nil, fmt.Errorf("audio media %d has no duration", m.ID)
		}
		return []segment.Segment{{Start: 0, End: m.DurationMs - 1, Unit: segment.UnitMilliseconds}}, nil
	case media.KindImage:
		return []segment.Segment{{Start: 0, End: 0, Unit: segment.UnitFrames}}, nil
	case media.KindVideo:
		if m.FrameCount <= 0 {
			return nil, fmt.Errorf("video media %d has no frames", m.ID)
		}
		return segment.CreateRangeSegments([]interval.Interval{interval.New(0, m.FrameCount-1)}, plan, segment.UnitFrames)
	default:
		return nil, fmt.Errorf("media %d has unsupported type %q", m.ID, m.Type)
	}
}

// HealthCheck reports whether a dispatcher is wired.
func (h *Detection) HealthCheck(context.Context) Health {
	if h.detector == nil {
		return Unhealthy("detection", "dispatcher unavailable")
	}
	return Healthy("detection")
}
