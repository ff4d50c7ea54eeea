package dispatch_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mediaflow/internal/dispatch"
	"mediaflow/internal/jobs"
	"mediaflow/internal/markup"
	"mediaflow/internal/media"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/props"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
)

func sampleJob() (*jobs.Job, *jobs.Media) {
	job := &jobs.Job{ID: 12, Properties: map[string]string{"A": "job", "B": "job"}}
	m := &jobs.Media{
		ID:         5,
		JobID:      12,
		Path:       "/in/clip: one?.mp4",
		MIMEType:   "video/mp4",
		Type:       media.KindVideo,
		FrameCount: 30,
		FPS:        25,
		Properties: map[string]string{"B": "media"},
	}
	return job, m
}

func TestCombinedPropertiesLayering(t *testing.T) {
	job, m := sampleJob()
	action := pipeline.Action{Properties: map[string]string{"A": "action", "B": "action", "C": "action"}}
	got := dispatch.CombinedProperties(action, job, m)
	want := map[string]string{"A": "job", "B": "media", "C": "action"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectionRequestsOnePerSegment(t *testing.T) {
	job, m := sampleJob()
	ref := dispatch.ActionRef{TaskIndex: 1, ActionIndex: 0, Action: pipeline.Action{Name: "FACE ACTION", Algorithm: "facecv"}}
	segments := []segment.Segment{
		{Start: 0, End: 9, Unit: segment.UnitFrames},
		{Start: 10, End: 29, Unit: segment.UnitFrames},
	}
	ff, err := track.New("PERSON", []track.Detection{{Width: 1, Height: 1, Confidence: 0.5, FrameOffset: 3}}, nil)
	if err != nil {
		t.Fatalf("track.New: %v", err)
	}
	properties := map[string]string{"K": "V"}

	reqs := dispatch.DetectionRequests(job, m, ref, segments, &ff, properties)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	for i, req := range reqs {
		if req.Algorithm != "FACECV" || req.JobID != 12 || req.MediaID != 5 || req.TaskIndex != 1 {
			t.Fatalf("unexpected request header %+v", req)
		}
		if diff := cmp.Diff(segments[i], req.Segment); diff != "" {
			t.Fatalf("segment %d mismatch (-want +got):\n%s", i, diff)
		}
		if req.FeedForward == nil || req.FeedForward.Type != "PERSON" {
			t.Fatalf("expected feed-forward track, got %+v", req.FeedForward)
		}
		if req.MediaMetadata["FRAME_COUNT"] != "30" || req.MediaMetadata["MEDIA_TYPE"] != "video" {
			t.Fatalf("unexpected metadata %v", req.MediaMetadata)
		}
	}
	reqs[0].Properties["K"] = "changed"
	if properties["K"] != "V" || reqs[1].Properties["K"] != "V" {
		t.Fatal("requests must not share property maps")
	}

	if got := dispatch.DetectionRequests(job, m, ref, nil, nil, properties); got != nil {
		t.Fatalf("expected no requests without segments, got %v", got)
	}
}

func TestMarkupDestination(t *testing.T) {
	job, m := sampleJob()
	got, warnings := dispatch.MarkupDestination("/out", job, m, markup.EncoderH264)
	if want := filepath.Join("/out", "12", "markup", "clip- one-5.mp4"); got != want {
		t.Fatalf("destination = %q, want %q", got, want)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}

	got, warnings = dispatch.MarkupDestination("/out", job, m, "theora")
	if filepath.Ext(got) != ".avi" || len(warnings) != 1 || warnings[0].Code != props.CodeUnknownEncoder {
		t.Fatalf("expected avi fallback with warning, got %q %v", got, warnings)
	}

	img := &jobs.Media{ID: 9, Path: "/in/still.jpeg", Type: media.KindImage, MIMEType: "image/jpeg"}
	if got, _ := dispatch.MarkupDestination("/out", job, img, markup.EncoderVP9); filepath.Base(got) != "still-9.png" {
		t.Fatalf("unexpected image destination %q", got)
	}

	audio := &jobs.Media{ID: 3, Path: "/in/talk.wav", Type: media.KindAudio, MIMEType: "application/x-unknown-thing"}
	got, warnings = dispatch.MarkupDestination("/out", job, audio, markup.EncoderVP9)
	if filepath.Base(got) != "talk-3.bin" || len(warnings) != 1 || warnings[0].Code != props.CodeUnknownMIME {
		t.Fatalf("expected generic extension with warning, got %q %v", got, warnings)
	}
}

func TestMarkupRequestCarriesSnapshot(t *testing.T) {
	job, m := sampleJob()
	tr, err := track.New("FACE", []track.Detection{{X: 1, Y: 2, Width: 3, Height: 4, Confidence: 0.9, FrameOffset: 0}}, nil)
	if err != nil {
		t.Fatalf("track.New: %v", err)
	}
	opts := markup.DefaultOptions()
	boxes, err := markup.BuildMap([]track.Track{tr}, opts, markup.NewColorSequence())
	if err != nil {
		t.Fatalf("BuildMap: %v", err)
	}
	req := dispatch.MarkupRequest(job, m, 2, boxes, "/out/x.webm", opts, map[string]string{"P": "1"})
	if req.Destination != "/out/x.webm" || req.Encoder != markup.EncoderVP9 || req.TaskIndex != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if diff := cmp.Diff(boxes.Snapshot(), req.Boxes); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
