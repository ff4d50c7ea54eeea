// Package track models the detection tracks produced by detector workers.
//
// A Track groups the detections one detector reported for a single object
// across a frame range. Tracks are immutable once constructed: New sorts the
// detections, derives the frame and time range, and selects the exemplar.
// Persisted tracks are checked with Validate before the engine consumes them.
package track

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"mediaflow/internal/interval"
)

// ErrInconsistent marks a track that violates its own invariants: no
// detections, a frame range that does not match its detections, or an
// exemplar that is not one of its detections.
var ErrInconsistent = errors.New("track internal consistency violation")

// Well-known detection and track properties.
const (
	PropertyRotation       = "ROTATION"
	PropertyHorizontalFlip = "HORIZONTAL_FLIP"
	PropertyMoving         = "MOVING"
	PropertyFilledGap      = "FILLED_GAP"
	PropertyConfidence     = "CONFIDENCE"
)

// Detection is a single detector result on one frame.
type Detection struct {
	X            int               `json:"x"`
	Y            int               `json:"y"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Confidence   float32           `json:"confidence"`
	FrameOffset  int               `json:"frame"`
	TimeOffsetMs int               `json:"time_ms"`
	Properties   map[string]string `json:"properties,omitempty"`
}

// Property returns a detection property, matching the key case-insensitively
// when no exact match exists.
func (d Detection) Property(key string) (string, bool) {
	return lookup(d.Properties, key)
}

// Equal reports value equality, including properties.
func (d Detection) Equal(other Detection) bool {
	return d.X == other.X &&
		d.Y == other.Y &&
		d.Width == other.Width &&
		d.Height == other.Height &&
		d.Confidence == other.Confidence &&
		d.FrameOffset == other.FrameOffset &&
		d.TimeOffsetMs == other.TimeOffsetMs &&
		maps.Equal(d.Properties, other.Properties)
}

// Compare orders detections by frame, then time, geometry and confidence.
func Compare(a, b Detection) int {
	return cmp.Or(
		cmp.Compare(a.FrameOffset, b.FrameOffset),
		cmp.Compare(a.TimeOffsetMs, b.TimeOffsetMs),
		cmp.Compare(a.X, b.X),
		cmp.Compare(a.Y, b.Y),
		cmp.Compare(a.Width, b.Width),
		cmp.Compare(a.Height, b.Height),
		cmp.Compare(a.Confidence, b.Confidence),
	)
}

// Track is the ordered set of detections for one object.
type Track struct {
	JobID       int64             `json:"job_id"`
	MediaID     int64             `json:"media_id"`
	TaskIndex   int               `json:"task_index"`
	ActionIndex int               `json:"action_index"`
	StartFrame  int               `json:"start_frame"`
	EndFrame    int               `json:"end_frame"`
	StartTimeMs int               `json:"start_time_ms"`
	EndTimeMs   int               `json:"end_time_ms"`
	Type        string            `json:"type"`
	Confidence  float32           `json:"confidence"`
	Exemplar    Detection         `json:"exemplar"`
	Detections  []Detection       `json:"detections"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// New builds a track from raw detections. The detections are copied and
// sorted, the frame/time range is derived from them and the highest
// confidence detection becomes the exemplar (earliest frame wins ties). The
// track confidence is the exemplar's.
func New(trackType string, detections []Detection, properties map[string]string) (Track, error) {
	if len(detections) == 0 {
		return Track{}, fmt.Errorf("%w: track %q has no detections", ErrInconsistent, trackType)
	}
	sorted := slices.Clone(detections)
	slices.SortFunc(sorted, Compare)

	exemplar := sorted[0]
	for _, d := range sorted[1:] {
		if d.Confidence > exemplar.Confidence {
			exemplar = d
		}
	}

	t := Track{
		Type:        strings.TrimSpace(trackType),
		Confidence:  exemplar.Confidence,
		Exemplar:    exemplar,
		Detections:  sorted,
		Properties:  maps.Clone(properties),
		StartFrame:  sorted[0].FrameOffset,
		EndFrame:    sorted[len(sorted)-1].FrameOffset,
		StartTimeMs: sorted[0].TimeOffsetMs,
		EndTimeMs:   sorted[len(sorted)-1].TimeOffsetMs,
	}
	return t, nil
}

// WithExemplar returns a copy of the track using the supplied exemplar. The
// exemplar must be one of the track's detections.
func (t Track) WithExemplar(exemplar Detection) (Track, error) {
	if t.ExemplarIndex(exemplar) < 0 {
		return Track{}, fmt.Errorf("%w: exemplar at frame %d not among detections", ErrInconsistent, exemplar.FrameOffset)
	}
	t.Exemplar = exemplar
	t.Confidence = exemplar.Confidence
	return t, nil
}

// Interval returns the frame range occupied by the track.
func (t Track) Interval() interval.Interval {
	return interval.New(t.StartFrame, t.EndFrame)
}

// TimeInterval returns the millisecond range occupied by the track.
func (t Track) TimeInterval() interval.Interval {
	return interval.New(t.StartTimeMs, t.EndTimeMs)
}

// Property returns a track-level property.
func (t Track) Property(key string) (string, bool) {
	return lookup(t.Properties, key)
}

// ExemplarIndex returns the position of the detection equal to candidate, or
// -1 when no detection matches.
func (t Track) ExemplarIndex(candidate Detection) int {
	return slices.IndexFunc(t.Detections, candidate.Equal)
}

// Validate checks the invariants the segmenters and markup builder rely on.
func (t Track) Validate() error {
	if len(t.Detections) == 0 {
		return fmt.Errorf("%w: track %q has no detections", ErrInconsistent, t.Type)
	}
	if !slices.IsSortedFunc(t.Detections, Compare) {
		return fmt.Errorf("%w: track %q detections out of order", ErrInconsistent, t.Type)
	}
	first := t.Detections[0].FrameOffset
	last := t.Detections[len(t.Detections)-1].FrameOffset
	if t.StartFrame != first || t.EndFrame != last {
		return fmt.Errorf("%w: track %q range [%d,%d] does not match detections [%d,%d]",
			ErrInconsistent, t.Type, t.StartFrame, t.EndFrame, first, last)
	}
	if t.ExemplarIndex(t.Exemplar) < 0 {
		return fmt.Errorf("%w: track %q exemplar at frame %d not among detections",
			ErrInconsistent, t.Type, t.Exemplar.FrameOffset)
	}
	return nil
}

// CompareTracks orders tracks by start frame, end frame, type and confidence
// (highest first) so markup colors are assigned deterministically.
func CompareTracks(a, b Track) int {
	return cmp.Or(
		cmp.Compare(a.StartFrame, b.StartFrame),
		cmp.Compare(a.EndFrame, b.EndFrame),
		cmp.Compare(a.Type, b.Type),
		cmp.Compare(b.Confidence, a.Confidence),
		cmp.Compare(a.ActionIndex, b.ActionIndex),
		Compare(a.Exemplar, b.Exemplar),
	)
}

// lookup prefers an exact key. Among keys differing only in case the
// lexically smallest wins, so the result does not depend on map order.
func lookup(props map[string]string, key string) (string, bool) {
	if len(props) == 0 {
		return "", false
	}
	if v, ok := props[key]; ok {
		return v, true
	}
	match, found := "", false
	for k := range props {
		if strings.EqualFold(k, key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return "", false
	}
	return props[match], true
}
