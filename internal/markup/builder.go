package markup

import (
	"errors"
	"slices"

	"mediaflow/internal/props"
	"mediaflow/internal/track"
)

// ErrBuilderClosed is returned when a Builder is used after Map.
var ErrBuilderClosed = errors.New("markup builder already produced its map")

// TrackOptions is Options resolved for a single track.
type TrackOptions struct {
	Options
	TrackIndex         int
	Color              RGB
	ExemptFromPerFrame bool
}

// BuildTrack paints one track into m.
//
// Exempt tracks get a single span over [StartFrame, EndFrame] drawn from the
// exemplar. Other tracks get one box per detection; with Animate set, frames
// between two detections receive boxes interpolated toward the next
// detection.
func BuildTrack(m *BoundingBoxMap, t track.Track, opts TrackOptions) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if opts.ExemptFromPerFrame {
		box := exemplarBox(t, opts)
		m.putOnFrames(t.StartFrame, t.EndFrame, box)
		return nil
	}

	for i, d := range t.Detections {
		box := detectionBox(t, d, opts)
		if i == len(t.Detections)-1 {
			m.putOnFrame(d.FrameOffset, box)
			break
		}
		next := t.Detections[i+1]
		gap := next.FrameOffset - d.FrameOffset
		if gap > 1 && opts.Animate {
			m.animate(box, geometry(t, next), d.FrameOffset, gap)
			continue
		}
		m.putOnFrame(d.FrameOffset, box)
	}
	return nil
}

func detectionBox(t track.Track, d track.Detection, opts TrackOptions) BoundingBox {
	box := geometry(t, d)
	box.HorizontalFlip = resolveBool(t, d, track.PropertyHorizontalFlip)
	box.Moving = resolveBool(t, d, track.PropertyMoving)
	box.Color = opts.Color
	box.Source = SourceDetection
	if v, ok := d.Property(track.PropertyFilledGap); ok {
		if filled, _ := props.ParseBool(v); filled {
			box.Source = SourceFilledGap
		}
	}
	box.Exemplar = d.Equal(t.Exemplar)
	box.Label = resolveLabel(t, d, opts)
	return box
}

// exemplarBox uses only the exemplar's own rotation and flip.
func exemplarBox(t track.Track, opts TrackOptions) BoundingBox {
	ex := t.Exemplar
	box := BoundingBox{
		X:        ex.X,
		Y:        ex.Y,
		Width:    ex.Width,
		Height:   ex.Height,
		Color:    opts.Color,
		Source:   SourceDetection,
		Exemplar: true,
		Label:    resolveLabel(t, ex, opts),
	}
	if v, ok := ex.Property(track.PropertyRotation); ok {
		if r, ok := props.ParseFloat(v); ok {
			box.Rotation = normalizeDegrees(r)
		}
	}
	if v, ok := ex.Property(track.PropertyHorizontalFlip); ok {
		box.HorizontalFlip, _ = props.ParseBool(v)
	}
	if v, ok := ex.Property(track.PropertyMoving); ok {
		box.Moving, _ = props.ParseBool(v)
	}
	return box
}

// geometry returns the position, size and rotation of d.
func geometry(t track.Track, d track.Detection) BoundingBox {
	return BoundingBox{
		X:        d.X,
		Y:        d.Y,
		Width:    d.Width,
		Height:   d.Height,
		Rotation: resolveRotation(t, d),
	}
}

// resolveRotation prefers the detection's ROTATION, then the track's, then 0.
// Unparseable values count as absent.
func resolveRotation(t track.Track, d track.Detection) float64 {
	for _, lookup := range []func(string) (string, bool){d.Property, t.Property} {
		if v, ok := lookup(track.PropertyRotation); ok {
			if r, ok := props.ParseFloat(v); ok {
				return normalizeDegrees(r)
			}
		}
	}
	return 0
}

func resolveBool(t track.Track, d track.Detection, key string) bool {
	for _, lookup := range []func(string) (string, bool){d.Property, t.Property} {
		if v, ok := lookup(key); ok {
			if b, ok := props.ParseBool(v); ok {
				return b
			}
		}
	}
	return false
}

// Builder paints the tracks of one medium, assigning each track the next
// color and index. It must not be shared between goroutines or media.
type Builder struct {
	opts   Options
	colors *ColorSequence
	m      *BoundingBoxMap
	next   int
}

// NewBuilder returns a builder drawing colors from colors.
func NewBuilder(opts Options, colors *ColorSequence) *Builder {
	if colors == nil {
		colors = NewColorSequence()
	}
	return &Builder{opts: opts, colors: colors, m: NewBoundingBoxMap()}
}

// Add paints t with the next color and track index.
func (b *Builder) Add(t track.Track) error {
	if b.m == nil {
		return ErrBuilderClosed
	}
	// A rejected track must not consume an index or a color.
	if err := t.Validate(); err != nil {
		return err
	}
	opts := TrackOptions{
		Options:            b.opts,
		TrackIndex:         b.next,
		Color:              b.colors.Next(),
		ExemptFromPerFrame: b.opts.Exempt(t.Type),
	}
	b.next++
	return BuildTrack(b.m, t, opts)
}

// Map hands over the finished map. The builder cannot be used afterwards.
func (b *Builder) Map() *BoundingBoxMap {
	m := b.m
	b.m = nil
	return m
}

// BuildMap paints tracks in CompareTracks order with a fresh builder.
func BuildMap(tracks []track.Track, opts Options, colors *ColorSequence) (*BoundingBoxMap, error) {
	ordered := slices.Clone(tracks)
	slices.SortStableFunc(ordered, track.CompareTracks)

	b := NewBuilder(opts, colors)
	for _, t := range ordered {
		if err := b.Add(t); err != nil {
			return nil, err
		}
	}
	return b.Map(), nil
}
