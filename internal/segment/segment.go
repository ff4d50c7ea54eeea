// Package segment decides how a medium's frame or time range is cut into the
// work units dispatched to detector workers.
//
// CreateSegments covers the union of the supplied tracks with fixed-length
// windows. CreateFeedForwardSegments instead re-processes only the frames of
// each track where the upstream detector was most confident. Both functions
// are pure: identical input always yields identical output.
package segment

import (
	"errors"
	"fmt"
	"slices"

	"mediaflow/internal/interval"
	"mediaflow/internal/track"
)

// ErrInvalidPlan is returned for segmenting parameters that cannot produce a
// sensible segmentation.
var ErrInvalidPlan = errors.New("invalid segmenting plan")

// Unit is the axis a segment is measured on.
type Unit string

const (
	UnitFrames       Unit = "frames"
	UnitMilliseconds Unit = "milliseconds"
)

// Segment is one contiguous range of work. Frames lists the selected frames
// of a feed-forward segment and is empty otherwise.
type Segment struct {
	Start  int   `json:"start"`
	End    int   `json:"end"`
	Unit   Unit  `json:"unit"`
	Frames []int `json:"frames,omitempty"`
}

// Len reports the number of units the segment covers.
func (s Segment) Len() int {
	return s.End - s.Start + 1
}

// Interval returns the covered range.
func (s Segment) Interval() interval.Interval {
	return interval.New(s.Start, s.End)
}

func (s Segment) String() string {
	return fmt.Sprintf("%s[%d,%d]", s.Unit, s.Start, s.End)
}

// Plan holds the segmenting parameters for one action.
type Plan struct {
	TargetLength int
	MinLength    int
	MinGap       int
}

// Validate rejects plans whose windows cannot be cut.
func (p Plan) Validate() error {
	switch {
	case p.TargetLength <= 0:
		return fmt.Errorf("%w: target length %d must be positive", ErrInvalidPlan, p.TargetLength)
	case p.MinLength < 1:
		return fmt.Errorf("%w: minimum length %d must be at least 1", ErrInvalidPlan, p.MinLength)
	case p.MinLength > p.TargetLength:
		return fmt.Errorf("%w: minimum length %d exceeds target length %d", ErrInvalidPlan, p.MinLength, p.TargetLength)
	case p.MinGap < 0:
		return fmt.Errorf("%w: minimum gap %d must not be negative", ErrInvalidPlan, p.MinGap)
	}
	return nil
}

// CreateSegments merges the frame ranges of all tracks, bridging gaps of up
// to plan.MinGap frames, and windows each merged range.
func CreateSegments(tracks []track.Track, plan Plan) ([]Segment, error) {
	ranges := make([]interval.Interval, 0, len(tracks))
	for _, t := range tracks {
		ranges = append(ranges, t.Interval())
	}
	return CreateRangeSegments(ranges, plan, UnitFrames)
}

// CreateRangeSegments windows the union of raw ranges. The first detection
// task of a job calls it with the medium's full range.
func CreateRangeSegments(ranges []interval.Interval, plan Plan, unit Unit) ([]Segment, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	var out []Segment
	for _, occupied := range interval.Union(ranges, plan.MinGap) {
		out = append(out, window(occupied, plan, unit)...)
	}
	return out, nil
}

// window cuts targetLength windows left to right. A remainder shorter than
// the minimum length is absorbed by the window before it.
func window(occupied interval.Interval, plan Plan, unit Unit) []Segment {
	var out []Segment
	for start := occupied.Start; start <= occupied.End; {
		end := start + plan.TargetLength - 1
		if end >= occupied.End || occupied.End-end < plan.MinLength {
			end = occupied.End
		}
		out = append(out, Segment{Start: start, End: end, Unit: unit})
		start = end + 1
	}
	return out
}

// CreateFeedForwardSegments segments each track independently around its
// topCount most confident detections. A topCount of zero covers the whole
// track. plan.MinGap is not used: tracks are never merged with each other.
func CreateFeedForwardSegments(topCount int, tracks []track.Track, plan Plan) ([]Segment, error) {
	if topCount < 0 {
		return nil, fmt.Errorf("%w: feed-forward top confidence count %d must not be negative", ErrInvalidPlan, topCount)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	var out []Segment
	for _, t := range tracks {
		if len(t.Detections) == 0 {
			return nil, fmt.Errorf("%w: track %q has no detections", track.ErrInconsistent, t.Type)
		}
		if topCount == 0 {
			out = append(out, window(t.Interval(), plan, UnitFrames)...)
			continue
		}
		for _, group := range groupFrames(topFrames(t.Detections, topCount), plan) {
			out = append(out, Segment{
				Start:  group[0],
				End:    group[len(group)-1],
				Unit:   UnitFrames,
				Frames: group,
			})
		}
	}
	slices.SortStableFunc(out, func(a, b Segment) int {
		return interval.Compare(a.Interval(), b.Interval())
	})
	return out, nil
}

// topFrames ranks detections by confidence, highest first with earlier frames
// winning ties, and returns the distinct frames of the top n in ascending order.
func topFrames(detections []track.Detection, n int) []int {
	ranked := slices.Clone(detections)
	slices.SortStableFunc(ranked, func(a, b track.Detection) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return a.FrameOffset - b.FrameOffset
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	frames := make([]int, 0, len(ranked))
	for _, d := range ranked {
		frames = append(frames, d.FrameOffset)
	}
	slices.Sort(frames)
	return slices.Compact(frames)
}

// groupFrames chunks ascending frames into groups of TargetLength. A trailing
// group with fewer than MinLength frames joins the group before it.
func groupFrames(frames []int, plan Plan) [][]int {
	var groups [][]int
	for i := 0; i < len(frames); i += plan.TargetLength {
		end := min(i+plan.TargetLength, len(frames))
		groups = append(groups, slices.Clone(frames[i:end]))
	}
	if n := len(groups); n > 1 && len(groups[n-1]) < plan.MinLength {
		groups[n-2] = append(groups[n-2], groups[n-1]...)
		groups = groups[:n-1]
	}
	return groups
}
