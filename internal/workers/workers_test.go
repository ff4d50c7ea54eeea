package workers_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaflow/internal/bus"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/logging"
	"mediaflow/internal/markup"
	"mediaflow/internal/media"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
	"mediaflow/internal/workers"
)

func writeSidecar(t *testing.T, path string, tracks []workers.SidecarTrack) {
	t.Helper()
	data, err := json.Marshal(tracks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func faces() []workers.SidecarTrack {
	return []workers.SidecarTrack{
		{
			Type: "FACE",
			Detections: []track.Detection{
				{X: 1, Y: 1, Width: 10, Height: 10, Confidence: 0.5, FrameOffset: 5, TimeOffsetMs: 200},
				{X: 2, Y: 2, Width: 10, Height: 10, Confidence: 0.9, FrameOffset: 50, TimeOffsetMs: 2000},
				{X: 3, Y: 3, Width: 10, Height: 10, Confidence: 0.7, FrameOffset: 150, TimeOffsetMs: 6000},
			},
		},
		{
			Type:       "FACE",
			Algorithm:  "PERSON",
			Detections: []track.Detection{{Width: 4, Height: 4, Confidence: 1, FrameOffset: 10}},
		},
	}
}

func TestSidecarDetectorClipsToSegment(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, clip+workers.SidecarSuffix, faces())

	tracks, err := workers.SidecarDetector{}.Detect(context.Background(), bus.DetectionRequest{
		Algorithm: "FACECV",
		MediaPath: clip,
		Segment:   segment.Segment{Start: 0, End: 99, Unit: segment.UnitFrames},
	})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, 5, tracks[0].StartFrame)
	assert.Equal(t, 50, tracks[0].EndFrame)
	assert.Equal(t, float32(0.9), tracks[0].Confidence)

	tracks, err = workers.SidecarDetector{}.Detect(context.Background(), bus.DetectionRequest{
		Algorithm: "FACECV",
		MediaPath: clip,
		Segment:   segment.Segment{Start: 1000, End: 7000, Unit: segment.UnitMilliseconds},
	})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Len(t, tracks[0].Detections, 2)
}

func TestSidecarDetectorFeedForwardFrames(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, clip+workers.SidecarSuffix, faces())

	tracks, err := workers.SidecarDetector{}.Detect(context.Background(), bus.DetectionRequest{
		Algorithm: "FACECV",
		MediaPath: clip,
		Segment:   segment.Segment{Start: 0, End: 150, Unit: segment.UnitFrames, Frames: []int{50, 150}},
	})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, 50, tracks[0].StartFrame)
	assert.Equal(t, 150, tracks[0].EndFrame)
}

func TestSidecarPathsUseAlgorithmToken(t *testing.T) {
	assert.Equal(t, []string{
		"/media/clip.mp4.face_cv_v2.tracks.json",
		"/media/clip.mp4.tracks.json",
	}, workers.SidecarPaths("/media/clip.mp4", " FACE CV/v2 "))
	assert.Equal(t, []string{"/media/clip.mp4.tracks.json"}, workers.SidecarPaths("/media/clip.mp4", "  "))
}

func TestSidecarDetectorAlgorithmFiles(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, clip+workers.SidecarSuffix, faces())
	writeSidecar(t, clip+".motion"+workers.SidecarSuffix, []workers.SidecarTrack{{
		Type:       "MOTION",
		Detections: []track.Detection{{Width: 8, Height: 8, Confidence: 1, FrameOffset: 3}},
	}})

	person, err := workers.LoadSidecar(clip, "PERSON")
	require.NoError(t, err)
	assert.Len(t, person, 2, "entries without an algorithm apply to every algorithm")

	motion, err := workers.LoadSidecar(clip, "MOTION")
	require.NoError(t, err)
	require.Len(t, motion, 1)
	assert.Equal(t, "MOTION", motion[0].Type)
}

func TestSidecarDetectorMissingFile(t *testing.T) {
	tracks, err := workers.SidecarDetector{}.Detect(context.Background(), bus.DetectionRequest{
		Algorithm: "FACECV",
		MediaPath: filepath.Join(t.TempDir(), "none.mp4"),
		Segment:   segment.Segment{Start: 0, End: 10, Unit: segment.UnitFrames},
	})
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestSidecarDetectorRejectsMalformedFile(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(clip+workers.SidecarSuffix, []byte("{"), 0o644))
	_, err := workers.SidecarDetector{}.Detect(context.Background(), bus.DetectionRequest{MediaPath: clip})
	require.Error(t, err)
}

func TestManifestRendererOverlay(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out", "clip-1.webm")
	boxes := markup.Snapshot{
		Frames: []markup.FrameBoxes{},
		Spans:  []markup.Span{{Start: 0, End: 4}},
	}

	path, err := workers.NewManifestRenderer().Render(context.Background(), bus.MarkupRequest{
		MediaPath:   filepath.Join(dir, "clip.mp4"),
		MediaType:   media.KindVideo,
		MIMEType:    "video/mp4",
		Destination: dest,
		Encoder:     "vp9",
		Boxes:       boxes,
	})
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var manifest workers.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "vp9", manifest.Encoder)
	assert.Equal(t, media.KindVideo, manifest.MediaType)
	assert.Len(t, manifest.Boxes.Spans, 1)
}

func TestManifestRendererCopiesAudio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "speech.wav")
	require.NoError(t, os.WriteFile(src, []byte("RIFF-audio"), 0o644))
	dest := filepath.Join(dir, "out", "speech-2.wav")

	path, err := workers.NewManifestRenderer().Render(context.Background(), bus.MarkupRequest{
		MediaPath:   src,
		MediaType:   media.KindAudio,
		MIMEType:    "audio/wav",
		Destination: dest,
	})
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	copied, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "RIFF-audio", string(copied))
	_, err = os.Stat(dest + workers.ManifestSuffix)
	require.NoError(t, err)
}

func TestPoolServesBus(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	writeSidecar(t, clip+workers.SidecarSuffix, faces())

	ctx, cancel := context.WithCancel(context.Background())
	b := bus.NewMemory(16)
	logger := logging.NewNop()
	pool := workers.Start(ctx, b, []string{"FACECV"}, 2, logger)
	t.Cleanup(func() {
		cancel()
		b.Close()
		pool.Wait()
	})

	d := dispatch.New(b, 5*time.Second, logger)
	resps, err := d.Detect(ctx, []bus.DetectionRequest{
		{MediaID: 1, Algorithm: "FACECV", MediaPath: clip, Segment: segment.Segment{Start: 0, End: 99, Unit: segment.UnitFrames}},
		{MediaID: 1, Algorithm: "FACECV", MediaPath: clip, Segment: segment.Segment{Start: 100, End: 199, Unit: segment.UnitFrames}},
	})
	require.NoError(t, err)
	require.Len(t, resps, 2)
	for _, resp := range resps {
		assert.Empty(t, resp.Error)
		assert.Len(t, resp.Tracks, 1)
	}
}
