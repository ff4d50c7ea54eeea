package markup

import (
	"encoding/json"
	"math"
	"slices"
)

// Source records why a box exists.
type Source string

const (
	SourceDetection Source = "DETECTION_ALGORITHM"
	SourceFilledGap Source = "TRACKING_FILLED_GAP"
	SourceAnimation Source = "ANIMATION"
)

// BoundingBox is one overlay rectangle handed to the renderer.
type BoundingBox struct {
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Rotation       float64 `json:"rotation"`
	HorizontalFlip bool    `json:"horizontal_flip"`
	Color          RGB     `json:"color"`
	Source         Source  `json:"source"`
	Moving         bool    `json:"moving"`
	Exemplar       bool    `json:"exemplar"`
	Label          string  `json:"label,omitempty"`
}

// Span is a single box valid on every frame of [Start, End].
type Span struct {
	Start int         `json:"start"`
	End   int         `json:"end"`
	Box   BoundingBox `json:"box"`
}

// FrameBoxes lists the independent boxes painted on one frame.
type FrameBoxes struct {
	Frame int           `json:"frame"`
	Boxes []BoundingBox `json:"boxes"`
}

// Snapshot is the ordered, serializable form of a BoundingBoxMap.
type Snapshot struct {
	Frames []FrameBoxes `json:"frames"`
	Spans  []Span       `json:"spans"`
}

// BoundingBoxMap indexes overlay boxes by frame. Per-frame boxes and spans are
// kept apart so a renderer can tell one box valid across a range from
// independent boxes on each frame. Only BuildTrack writes to a map.
type BoundingBoxMap struct {
	frames map[int][]BoundingBox
	spans  []Span
}

// NewBoundingBoxMap returns an empty map for BuildTrack to fill.
func NewBoundingBoxMap() *BoundingBoxMap {
	return &BoundingBoxMap{frames: make(map[int][]BoundingBox)}
}

// Frames returns the frames carrying per-frame boxes in ascending order.
func (m *BoundingBoxMap) Frames() []int {
	out := make([]int, 0, len(m.frames))
	for f := range m.frames {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// OnFrame returns the per-frame boxes painted on frame in paint order.
func (m *BoundingBoxMap) OnFrame(frame int) []BoundingBox {
	return slices.Clone(m.frames[frame])
}

// Spans returns the interval-painted boxes in paint order.
func (m *BoundingBoxMap) Spans() []Span {
	return slices.Clone(m.spans)
}

// BoxesAt returns every box visible on frame: spans covering it first, then
// per-frame boxes.
func (m *BoundingBoxMap) BoxesAt(frame int) []BoundingBox {
	var out []BoundingBox
	for _, s := range m.spans {
		if frame >= s.Start && frame <= s.End {
			out = append(out, s.Box)
		}
	}
	return append(out, m.frames[frame]...)
}

// Len reports the number of per-frame boxes plus spans.
func (m *BoundingBoxMap) Len() int {
	n := len(m.spans)
	for _, boxes := range m.frames {
		n += len(boxes)
	}
	return n
}

// Snapshot returns the map ordered by frame.
func (m *BoundingBoxMap) Snapshot() Snapshot {
	snap := Snapshot{Frames: []FrameBoxes{}, Spans: m.Spans()}
	if snap.Spans == nil {
		snap.Spans = []Span{}
	}
	for _, f := range m.Frames() {
		snap.Frames = append(snap.Frames, FrameBoxes{Frame: f, Boxes: m.OnFrame(f)})
	}
	return snap
}

// MarshalJSON encodes the map through its snapshot so output is stable.
func (m *BoundingBoxMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// FromSnapshot rebuilds a map, typically on the renderer side of the bus.
func FromSnapshot(s Snapshot) *BoundingBoxMap {
	m := NewBoundingBoxMap()
	for _, fb := range s.Frames {
		for _, box := range fb.Boxes {
			m.putOnFrame(fb.Frame, box)
		}
	}
	m.spans = slices.Clone(s.Spans)
	return m
}

func (m *BoundingBoxMap) putOnFrame(frame int, box BoundingBox) {
	m.frames[frame] = append(m.frames[frame], box)
}

func (m *BoundingBoxMap) putOnFrames(start, end int, box BoundingBox) {
	m.spans = append(m.spans, Span{Start: start, End: end, Box: box})
}

// animate paints origin on firstFrame and one interpolated box on each of the
// following steps-1 frames, moving toward dest. dest itself is not painted.
func (m *BoundingBoxMap) animate(origin, dest BoundingBox, firstFrame, steps int) {
	m.putOnFrame(firstFrame, origin)

	n := float64(steps)
	dx := float64(dest.X-origin.X) / n
	dy := float64(dest.Y-origin.Y) / n
	dw := float64(dest.Width-origin.Width) / n
	dh := float64(dest.Height-origin.Height) / n
	dr := rotationDelta(origin.Rotation, dest.Rotation) / n

	for step := 1; step < steps; step++ {
		k := float64(step)
		box := origin
		box.X = origin.X + int(float64(dx*k))
		box.Y = origin.Y + int(float64(dy*k))
		box.Width = origin.Width + int(float64(dw*k))
		box.Height = origin.Height + int(float64(dh*k))
		box.Rotation = normalizeDegrees(origin.Rotation + float64(dr*k))
		box.Source = SourceAnimation
		box.Exemplar = false
		m.putOnFrame(firstFrame+step, box)
	}
}

// rotationDelta returns the signed shortest turn from a to b in degrees.
func rotationDelta(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

func normalizeDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}
