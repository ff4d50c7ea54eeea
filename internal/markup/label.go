package markup

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"mediaflow/internal/props"
	"mediaflow/internal/track"
)

// labelSource resolves label properties either from one detection or from
// the track, in which case the exemplar's properties back up missing track
// properties.
type labelSource struct {
	lookup     func(key string) (string, bool)
	confidence float32
}

func sourceFor(t track.Track, d track.Detection, fromDetections bool) labelSource {
	if fromDetections {
		return labelSource{lookup: d.Property, confidence: d.Confidence}
	}
	return labelSource{
		lookup: func(key string) (string, bool) {
			if v, ok := t.Property(key); ok {
				return v, true
			}
			return t.Exemplar.Property(key)
		},
		confidence: t.Confidence,
	}
}

// resolveLabel renders "<index> <text> <number>". The index prefix is only
// added when the text or numeric part yields content.
func resolveLabel(t track.Track, d track.Detection, opts TrackOptions) string {
	src := sourceFor(t, d, opts.LabelsFromDetections)

	var parts []string
	if text := labelText(src, opts.LabelTextProperty, opts.MaxLabelLength); text != "" {
		parts = append(parts, text)
	}
	if number, ok := labelNumber(src, opts.LabelNumericProperty); ok {
		parts = append(parts, number)
	}
	if len(parts) == 0 {
		return ""
	}
	if opts.LabelTrackIndex {
		parts = append([]string{strconv.Itoa(opts.TrackIndex)}, parts...)
	}
	return strings.Join(parts, " ")
}

func labelText(src labelSource, key string, maxLen int) string {
	if key == "" {
		return ""
	}
	raw, ok := src.lookup(key)
	if !ok {
		return ""
	}
	return truncateLabel(raw, maxLen)
}

// truncateLabel trims, cuts to maxLen characters and trims again.
func truncateLabel(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLabelLength
	}
	text := strings.TrimSpace(norm.NFC.String(raw))
	if utf8.RuneCountInString(text) > maxLen {
		text = string([]rune(text)[:maxLen])
	}
	return strings.TrimSpace(text)
}

// labelNumber formats the numeric property with three decimals. An absent
// CONFIDENCE property falls back to the entity's own confidence. A present
// but non-numeric value yields no numeric part.
func labelNumber(src labelSource, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if raw, ok := src.lookup(key); ok {
		v, ok := props.ParseFloat(raw)
		if !ok {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', 3, 64), true
	}
	if strings.EqualFold(key, track.PropertyConfidence) {
		return strconv.FormatFloat(float64(src.confidence), 'f', 3, 64), true
	}
	return "", false
}
