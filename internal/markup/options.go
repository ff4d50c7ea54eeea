package markup

import (
	"slices"
	"strings"

	"mediaflow/internal/props"
	"mediaflow/internal/track"
)

// Markup properties read from the combined job/media/action bag.
const (
	PropertyLabelsFromDetections = "MARKUP_LABELS_FROM_DETECTIONS"
	PropertyLabelsTrackIndex     = "MARKUP_LABELS_TRACK_INDEX_ENABLED"
	PropertyLabelTextProp        = "MARKUP_LABELS_TEXT_PROP_TO_SHOW"
	PropertyLabelNumericProp     = "MARKUP_LABELS_NUMERIC_PROP_TO_SHOW"
	PropertyAnimationEnabled     = "MARKUP_ANIMATION_ENABLED"
	PropertyLabelMaxLength       = "MARKUP_TEXT_LABEL_MAX_LENGTH"
	PropertyVideoEncoder         = "MARKUP_VIDEO_ENCODER"
)

// DefaultMaxLabelLength applies when no usable maximum is configured.
const DefaultMaxLabelLength = 10

// DefaultExemptTrackTypes lists track types without per-frame geometry.
var DefaultExemptTrackTypes = []string{"SPEECH", "AUDIO", "TRANSCRIPT", "CLASS"}

// Options controls how tracks of one medium are turned into boxes.
type Options struct {
	LabelsFromDetections bool
	LabelTrackIndex      bool
	LabelTextProperty    string
	LabelNumericProperty string
	Animate              bool
	MaxLabelLength       int
	VideoEncoder         string
	ExemptTrackTypes     []string
}

// DefaultOptions returns the built-in markup defaults.
func DefaultOptions() Options {
	return Options{
		LabelTrackIndex:      true,
		LabelTextProperty:    "CLASSIFICATION",
		LabelNumericProperty: track.PropertyConfidence,
		MaxLabelLength:       DefaultMaxLabelLength,
		VideoEncoder:         EncoderVP9,
		ExemptTrackTypes:     slices.Clone(DefaultExemptTrackTypes),
	}
}

// Exempt reports whether tracks of trackType are painted as a single span.
func (o Options) Exempt(trackType string) bool {
	return slices.ContainsFunc(o.ExemptTrackTypes, func(t string) bool {
		return strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(trackType))
	})
}

// ParseOptions reads markup properties over defaults. Values that cannot be
// honoured keep the default and are returned as warnings.
func ParseOptions(values map[string]string, defaults Options) (Options, []props.Warning) {
	if defaults.MaxLabelLength <= 0 {
		defaults.MaxLabelLength = DefaultMaxLabelLength
	}
	bag := props.NewBag(values)
	opts := Options{
		LabelsFromDetections: bag.Bool(PropertyLabelsFromDetections, defaults.LabelsFromDetections),
		LabelTrackIndex:      bag.Bool(PropertyLabelsTrackIndex, defaults.LabelTrackIndex),
		LabelTextProperty:    defaults.LabelTextProperty,
		LabelNumericProperty: defaults.LabelNumericProperty,
		Animate:              bag.Bool(PropertyAnimationEnabled, defaults.Animate),
		MaxLabelLength:       bag.PositiveInt(PropertyLabelMaxLength, defaults.MaxLabelLength),
		VideoEncoder:         strings.ToLower(bag.String(PropertyVideoEncoder, defaults.VideoEncoder)),
		ExemptTrackTypes:     slices.Clone(defaults.ExemptTrackTypes),
	}
	// An explicitly blank label property disables that part of the label.
	if v, ok := values[PropertyLabelTextProp]; ok {
		opts.LabelTextProperty = strings.TrimSpace(v)
	}
	if v, ok := values[PropertyLabelNumericProp]; ok {
		opts.LabelNumericProperty = strings.TrimSpace(v)
	}
	return opts, bag.Warnings()
}
