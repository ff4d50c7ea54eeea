package segment

import (
	"fmt"
	"strings"

	"mediaflow/internal/props"
)

// Action properties that control segmentation.
const (
	PropertyTargetLength    = "TARGET_SEGMENT_LENGTH"
	PropertyMinLength       = "MIN_SEGMENT_LENGTH"
	PropertyMinGap          = "MIN_GAP_BETWEEN_SEGMENTS"
	PropertyFeedForwardType = "FEED_FORWARD_TYPE"
	PropertyFeedForwardTop  = "FEED_FORWARD_TOP_CONFIDENCE_COUNT"
)

// FeedForward selects how a later detection task derives its work.
type FeedForward string

const (
	FeedForwardNone           FeedForward = "NONE"
	FeedForwardFrame          FeedForward = "FRAME"
	FeedForwardSupersetRegion FeedForward = "SUPERSET_REGION"
)

// Enabled reports whether the previous task's tracks drive segmentation.
func (f FeedForward) Enabled() bool {
	return f != "" && f != FeedForwardNone
}

// Settings is the parsed segmentation configuration of one action.
type Settings struct {
	Plan               Plan
	FeedForward        FeedForward
	TopConfidenceCount int
}

// ParseSettings reads segmentation properties over defaults. Malformed values
// keep the default and are reported through bag.
func ParseSettings(bag *props.Bag, defaults Settings) Settings {
	out := Settings{
		Plan: Plan{
			TargetLength: bag.PositiveInt(PropertyTargetLength, defaults.Plan.TargetLength),
			MinLength:    bag.PositiveInt(PropertyMinLength, defaults.Plan.MinLength),
			MinGap:       bag.NonNegativeInt(PropertyMinGap, defaults.Plan.MinGap),
		},
		FeedForward:        defaults.FeedForward,
		TopConfidenceCount: bag.NonNegativeInt(PropertyFeedForwardTop, defaults.TopConfidenceCount),
	}
	if out.FeedForward == "" {
		out.FeedForward = FeedForwardNone
	}
	if raw, ok := bag.Lookup(PropertyFeedForwardType); ok {
		switch mode := FeedForward(strings.ToUpper(raw)); mode {
		case FeedForwardNone, FeedForwardFrame, FeedForwardSupersetRegion:
			out.FeedForward = mode
		default:
			bag.Add(props.Warning{
				Code:    props.CodeInvalidProperty,
				Message: fmt.Sprintf("property %s has invalid value %q; using %s", PropertyFeedForwardType, raw, out.FeedForward),
			})
		}
	}
	return out
}
