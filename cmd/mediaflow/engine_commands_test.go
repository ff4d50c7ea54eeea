package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mediaflow/internal/markup"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
	"mediaflow/internal/workers"
)

func personTrack(first, last int) workers.SidecarTrack {
	var detections []track.Detection
	for frame := first; frame <= last; frame += 5 {
		detections = append(detections, track.Detection{
			X:           10,
			Y:           20,
			Width:       30,
			Height:      40,
			Confidence:  float32(frame%7) / 10,
			FrameOffset: frame,
		})
	}
	return workers.SidecarTrack{Type: "PERSON", Detections: detections}
}

func TestSegmentCommandWholeVideo(t *testing.T) {
	env := setupOfflineCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"segment", "--frames", "100", "--json",
		"--property", "TARGET_SEGMENT_LENGTH=40",
		"--property", "MIN_SEGMENT_LENGTH=20",
	}, env.configPath)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	var segs []segment.Segment
	if err := json.Unmarshal([]byte(out), &segs); err != nil {
		t.Fatalf("decode segments: %v (%s)", err, out)
	}
	if len(segs) < 2 {
		t.Fatalf("expected the range to be split, got %+v", segs)
	}
	if segs[0].Start != 0 || segs[len(segs)-1].End != 99 {
		t.Fatalf("segments do not cover 0-99: %+v", segs)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start != segs[i-1].End+1 {
			t.Fatalf("segments not contiguous: %+v", segs)
		}
	}
}

func TestSegmentCommandFromTracks(t *testing.T) {
	env := setupOfflineCLITestEnv(t)
	tracksPath := filepath.Join(env.baseDir, "tracks.json")
	writeTrackFile(t, tracksPath, []workers.SidecarTrack{personTrack(10, 30)})

	out, _, err := runCLI(t, []string{"segment", tracksPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	var segs []segment.Segment
	if err := json.Unmarshal([]byte(out), &segs); err != nil {
		t.Fatalf("decode segments: %v (%s)", err, out)
	}
	if len(segs) == 0 || segs[0].Start > 10 || segs[len(segs)-1].End < 30 {
		t.Fatalf("segments do not cover the track: %+v", segs)
	}

	out, _, err = runCLI(t, []string{
		"segment", tracksPath, "--json",
		"--property", "FEED_FORWARD_TYPE=FRAME",
		"--property", "FEED_FORWARD_TOP_CONFIDENCE_COUNT=2",
	}, env.configPath)
	if err != nil {
		t.Fatalf("feed-forward segment: %v", err)
	}
	segs = nil
	if err := json.Unmarshal([]byte(out), &segs); err != nil {
		t.Fatalf("decode segments: %v (%s)", err, out)
	}
	selected := 0
	for _, s := range segs {
		selected += len(s.Frames)
	}
	if selected != 2 {
		t.Fatalf("expected 2 selected frames, got %+v", segs)
	}

	out, _, err = runCLI(t, []string{"segment", tracksPath}, env.configPath)
	if err != nil {
		t.Fatalf("segment table: %v", err)
	}
	requireContains(t, out, "START")
}

func TestSegmentCommandNeedsInput(t *testing.T) {
	env := setupOfflineCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"segment"}, env.configPath); err == nil {
		t.Fatal("expected error without track file or frames")
	}
}

func TestMarkupCommand(t *testing.T) {
	env := setupOfflineCLITestEnv(t)
	tracksPath := filepath.Join(env.baseDir, "tracks.json")
	writeTrackFile(t, tracksPath, []workers.SidecarTrack{personTrack(0, 20)})

	out, stderr, err := runCLI(t, []string{
		"markup", tracksPath,
		"--property", "MARKUP_LABELS_TRACK_INDEX_ENABLED=maybe",
	}, env.configPath)
	if err != nil {
		t.Fatalf("markup: %v", err)
	}
	requireContains(t, stderr, "warning:")
	var snap markup.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode box map: %v (%s)", err, out)
	}
	if len(snap.Frames)+len(snap.Spans) == 0 {
		t.Fatalf("expected boxes in %s", out)
	}

	target := filepath.Join(env.baseDir, "boxes.json")
	out, _, err = runCLI(t, []string{"markup", tracksPath, "-o", target}, env.configPath)
	if err != nil {
		t.Fatalf("markup to file: %v", err)
	}
	requireContains(t, out, "Wrote")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected box map at %s: %v", target, err)
	}
}

func TestMarkupCommandRejectsMalformedTracks(t *testing.T) {
	env := setupOfflineCLITestEnv(t)
	tracksPath := filepath.Join(env.baseDir, "tracks.json")
	if err := os.WriteFile(tracksPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write tracks: %v", err)
	}
	if _, _, err := runCLI(t, []string{"markup", tracksPath}, env.configPath); err == nil {
		t.Fatal("expected malformed track file to fail")
	}
}
