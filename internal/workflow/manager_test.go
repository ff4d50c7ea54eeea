package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mediaflow/internal/bus"
	"mediaflow/internal/config"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/jobs"
	"mediaflow/internal/logging"
	"mediaflow/internal/markup"
	"mediaflow/internal/media/inspect"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/stage"
	"mediaflow/internal/testsupport"
	"mediaflow/internal/track"
	"mediaflow/internal/workflow"
)

type harness struct {
	cfg     *config.Config
	store   *jobs.Store
	manager *workflow.Manager
	ctx     context.Context
}

func newHarness(t *testing.T, detect dispatch.DetectFunc) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithFFprobeOutput(testsupport.FFprobeVideo),
		testsupport.WithSegmenting(100, 10, 0),
	)
	require.NoError(t, cfg.EnsureDirectories())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	b := bus.NewMemory(64)
	t.Cleanup(func() {
		cancel()
		b.Close()
	})
	go dispatch.ServeDetection(ctx, b, "FACECV", detect, logger)
	go dispatch.ServeMarkup(ctx, b, func(_ context.Context, req bus.MarkupRequest) (string, error) {
		data, err := bus.Encode(req.Boxes)
		if err != nil {
			return "", err
		}
		return req.Destination, os.WriteFile(req.Destination, data, 0o644)
	}, logger)

	d := dispatch.New(b, 5*time.Second, logger)
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		Inspector: inspect.New(cfg),
		Detection: stage.NewDetection(store, d, cfg.SegmentSettings(), logger),
		Markup:    stage.NewMarkup(store, d, cfg.MarkupOptions(), logger),
	})
	return &harness{cfg: cfg, store: store, manager: mgr, ctx: ctx}
}

func (h *harness) submit(t *testing.T, pipelineName string, properties map[string]string, paths ...string) *jobs.Job {
	t.Helper()
	p, err := pipeline.DefaultCatalog().Lookup(pipelineName)
	require.NoError(t, err)
	req := jobs.NewJob{Pipeline: p, Properties: properties}
	for _, path := range paths {
		req.Media = append(req.Media, jobs.NewMedia{Path: path})
	}
	job, err := h.store.CreateJob(context.Background(), req)
	require.NoError(t, err)
	return job
}

func (h *harness) run(t *testing.T, jobID int64) *jobs.Job {
	t.Helper()
	require.NoError(t, h.manager.Start(h.ctx))
	defer h.manager.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := h.store.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %d did not finish", jobID)
	return nil
}

func segmentTrack(_ context.Context, req bus.DetectionRequest) ([]track.Track, error) {
	tr, err := track.New("FACE", []track.Detection{
		{X: 10, Y: 10, Width: 20, Height: 20, Confidence: 0.4, FrameOffset: req.Segment.Start},
		{X: 12, Y: 12, Width: 20, Height: 20, Confidence: 0.8, FrameOffset: req.Segment.End},
	}, nil)
	if err != nil {
		return nil, err
	}
	return []track.Track{tr}, nil
}

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteMP4(t, path)
	return path
}

func TestManagerRunsDetectionAndMarkup(t *testing.T) {
	h := newHarness(t, segmentTrack)
	job := h.submit(t, "FACE DETECTION WITH MARKUP", nil, writeClip(t))

	done := h.run(t, job.ID)
	require.Equal(t, jobs.StatusComplete, done.Status, done.ErrorMessage)
	require.Equal(t, 2, done.CurrentTask)
	require.Nil(t, done.LastHeartbeat)

	mediaList, err := h.store.MediaForJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, mediaList, 1)
	m := mediaList[0]
	require.Equal(t, 250, m.FrameCount)
	require.Equal(t, 640, m.Width)

	tracks, err := h.store.Tracks(context.Background(), job.ID, m.ID, 0)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	require.NotEmpty(t, m.MarkupPath)
	require.Equal(t, ".webm", filepath.Ext(m.MarkupPath))
	data, err := os.ReadFile(m.MarkupPath)
	require.NoError(t, err)
	var snap markup.Snapshot
	require.NoError(t, bus.Decode(data, &snap))
	require.NotEmpty(t, snap.Frames)
}

func TestManagerWarningsCompleteWithWarnings(t *testing.T) {
	h := newHarness(t, segmentTrack)
	job := h.submit(t, "FACE DETECTION WITH MARKUP", map[string]string{markup.PropertyVideoEncoder: "bogus"}, writeClip(t))

	done := h.run(t, job.ID)
	require.Equal(t, jobs.StatusCompleteWithWarnings, done.Status)

	warnings, err := h.store.Warnings(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.Equal(t, jobs.SeverityWarning, warnings[0].Severity)
}

func TestManagerCancelsAtTaskBoundary(t *testing.T) {
	var h *harness
	h = newHarness(t, func(ctx context.Context, req bus.DetectionRequest) ([]track.Track, error) {
		if _, err := h.store.RequestCancel(ctx, req.JobID); err != nil {
			return nil, err
		}
		return segmentTrack(ctx, req)
	})
	job := h.submit(t, "FACE DETECTION WITH MARKUP", nil, writeClip(t))

	done := h.run(t, job.ID)
	require.Equal(t, jobs.StatusCancelled, done.Status)
	require.Equal(t, jobs.CancelReason, done.ErrorMessage)
	require.Equal(t, 1, done.CurrentTask)

	mediaList, err := h.store.MediaForJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.Empty(t, mediaList[0].MarkupPath)
}

func TestManagerFailsUnsupportedMedia(t *testing.T) {
	h := newHarness(t, segmentTrack)
	notes := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, notes, []byte("plain text, not media\n"))
	job := h.submit(t, "FACE DETECTION", nil, writeClip(t), notes)

	done := h.run(t, job.ID)
	require.Equal(t, jobs.StatusCompleteWithErrors, done.Status)

	warnings, err := h.store.Warnings(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, workflow.CodeUnsupportedMedia, warnings[0].Code)
	require.Equal(t, jobs.SeverityError, warnings[0].Severity)

	mediaList, err := h.store.MediaForJob(context.Background(), job.ID)
	require.NoError(t, err)
	require.False(t, mediaList[0].Failed)
	require.True(t, mediaList[1].Failed)
}

func TestManagerDetectorTimeoutFailsJob(t *testing.T) {
	h := newHarness(t, func(context.Context, bus.DetectionRequest) ([]track.Track, error) {
		return nil, errors.New("no MOTION worker should be reached")
	})
	p := pipeline.Pipeline{
		Name: "MOTION ONLY",
		Tasks: []pipeline.Task{{
			Name:    "MOTION TASK",
			Actions: []pipeline.Action{{Name: "MOTION", Type: pipeline.ActionDetection, Algorithm: "MOTION"}},
		}},
	}
	job, err := h.store.CreateJob(context.Background(), jobs.NewJob{
		Pipeline: p,
		Media:    []jobs.NewMedia{{Path: writeClip(t)}},
	})
	require.NoError(t, err)

	idle := bus.NewMemory(8)
	t.Cleanup(func() { idle.Close() })
	h.manager.ConfigureStages(workflow.StageSet{
		Inspector: inspect.New(h.cfg),
		Detection: stage.NewDetection(h.store, dispatch.New(idle, 50*time.Millisecond, logging.NewNop()), h.cfg.SegmentSettings(), logging.NewNop()),
	})

	done := h.run(t, job.ID)
	require.Equal(t, jobs.StatusError, done.Status)
	require.Contains(t, done.ErrorMessage, "timeout")
	require.Equal(t, 0, done.CurrentTask)
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	require.Error(t, mgr.Start(context.Background()))
	require.False(t, mgr.Running())
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	h := newHarness(t, segmentTrack)
	h.submit(t, "FACE DETECTION", nil, writeClip(t))

	summary := h.manager.Status(context.Background())
	require.False(t, summary.Running)
	require.Equal(t, 1, summary.JobStats[jobs.StatusPending])
	require.Contains(t, summary.StageHealth, "detection")
	require.Contains(t, summary.StageHealth, "markup")
	require.True(t, summary.StageHealth["detection"].Ready)
}

func TestRunPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	require.Error(t, mgr.RunPreflight(), "output directory does not exist yet")

	require.NoError(t, cfg.EnsureDirectories())
	require.NoError(t, mgr.RunPreflight())
}
