package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"mediaflow/internal/bus"
	"mediaflow/internal/segment"
	"mediaflow/internal/services"
	"mediaflow/internal/textutil"
	"mediaflow/internal/track"
)

// SidecarSuffix is appended to a media path to locate its recorded tracks.
const SidecarSuffix = ".tracks.json"

// SidecarTrack is one recorded track in a sidecar file.
type SidecarTrack struct {
	Type       string            `json:"type"`
	Algorithm  string            `json:"algorithm,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Detections []track.Detection `json:"detections"`
}

// SidecarPaths lists the files consulted for algorithm, most specific first:
// <media>.<algorithm token>.tracks.json then <media>.tracks.json.
func SidecarPaths(mediaPath, algorithm string) []string {
	paths := make([]string, 0, 2)
	if strings.TrimSpace(algorithm) != "" {
		paths = append(paths, mediaPath+"."+textutil.SanitizeToken(algorithm)+SidecarSuffix)
	}
	return append(paths, mediaPath+SidecarSuffix)
}

// LoadSidecar reads the recorded tracks for algorithm. A medium without a
// sidecar file has no tracks. Entries naming a different algorithm are
// skipped.
func LoadSidecar(mediaPath, algorithm string) ([]SidecarTrack, error) {
	for _, path := range SidecarPaths(mediaPath, algorithm) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "detector", "read sidecar", path, err)
		}
		var recorded []SidecarTrack
		if err := json.Unmarshal(data, &recorded); err != nil {
			return nil, services.Wrap(services.ErrValidation, "detector", "parse sidecar", path, err)
		}
		out := recorded[:0]
		for _, t := range recorded {
			if t.Algorithm == "" || strings.EqualFold(t.Algorithm, algorithm) {
				out = append(out, t)
			}
		}
		return out, nil
	}
	return nil, nil
}

// SidecarDetector answers detection requests from sidecar files.
type SidecarDetector struct{}

// Detect returns the recorded tracks clipped to the request segment. Tracks
// with no detection inside the segment are dropped.
func (SidecarDetector) Detect(ctx context.Context, req bus.DetectionRequest) ([]track.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recorded, err := LoadSidecar(req.MediaPath, req.Algorithm)
	if err != nil {
		return nil, err
	}
	var out []track.Track
	for i, rt := range recorded {
		kept := clip(rt.Detections, req.Segment)
		if len(kept) == 0 {
			continue
		}
		t, err := track.New(rt.Type, kept, rt.Properties)
		if err != nil {
			return nil, fmt.Errorf("sidecar track %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func clip(detections []track.Detection, seg segment.Segment) []track.Detection {
	var kept []track.Detection
	for _, d := range detections {
		pos := d.FrameOffset
		if seg.Unit == segment.UnitMilliseconds {
			pos = d.TimeOffsetMs
		}
		if pos < seg.Start || pos > seg.End {
			continue
		}
		if len(seg.Frames) > 0 && !slices.Contains(seg.Frames, d.FrameOffset) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
