package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleVideo = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "codec_name": "aac"},
    {"index": 1, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
     "nb_frames": "300", "r_frame_rate": "30/1", "avg_frame_rate": "30000/1001", "duration": "10.010"}
  ],
  "format": {"duration": "10.010000", "format_name": "mov,mp4"}
}`

func TestResultHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleVideo))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := result.VideoStream()
	if !ok || v.Width != 1280 || v.Height != 720 {
		t.Fatalf("unexpected video stream %+v %v", v, ok)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio stream")
	}
	if got := result.FrameCount(); got != 300 {
		t.Fatalf("frame count = %d, want 300", got)
	}
	if got := result.FrameRate(); got < 29.97 || got > 29.98 {
		t.Fatalf("frame rate = %v, want ~29.97", got)
	}
	if got := result.DurationMs(); got != 10010 {
		t.Fatalf("duration = %d, want 10010", got)
	}
}

func TestFrameCountFallsBackToDuration(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", NBFrames: "N/A", RFrameRate: "25/1", AvgFrameRate: "0/0"}},
		Format:  Format{Duration: "2.0"},
	}
	if got := result.FrameRate(); got != 25 {
		t.Fatalf("frame rate = %v, want 25", got)
	}
	if got := result.FrameCount(); got != 50 {
		t.Fatalf("frame count = %d, want 50", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", RFrameRate: "bad", Duration: "nope"}},
		Format:  Format{Duration: "bad"},
	}
	if result.DurationSeconds() != 0 || result.FrameRate() != 0 || result.FrameCount() != 0 {
		t.Fatalf("expected zero values, got %v %v %v", result.DurationSeconds(), result.FrameRate(), result.FrameCount())
	}
	if (Result{}).FrameCount() != 0 || (Result{}).HasAudio() {
		t.Fatal("expected empty result to report nothing")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "probe.json")
	if err := os.WriteFile(payload, []byte(sampleVideo), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat "+payload+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := Inspect(context.Background(), script, "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.FrameCount() != 300 {
		t.Fatalf("unexpected frame count %d", result.FrameCount())
	}

	if _, err := Inspect(context.Background(), script, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Inspect(context.Background(), filepath.Join(dir, "missing"), "/x"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
