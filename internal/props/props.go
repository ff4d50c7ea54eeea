// Package props parses the string property bags that carry per-job,
// per-medium and per-action configuration.
//
// Values arrive as plain strings. Parsers here never fail: a malformed value
// falls back to the supplied default and yields a Warning the caller records
// against the owning job.
package props

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Warning describes a property that could not be honoured as written.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// Warning codes.
const (
	CodeInvalidProperty = "INVALID_PROPERTY"
	CodeUnknownEncoder  = "UNKNOWN_ENCODER"
	CodeUnknownMIME     = "UNKNOWN_MIME_TYPE"
)

// Merge layers property bags so later layers override earlier ones. Keys
// are matched exactly.
func Merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

// Bag is a read-only view over a property map that collects warnings while
// values are parsed.
type Bag struct {
	values   map[string]string
	warnings []Warning
}

// NewBag wraps values. The map is not copied.
func NewBag(values map[string]string) *Bag {
	return &Bag{values: values}
}

// Warnings returns the warnings accumulated so far.
func (b *Bag) Warnings() []Warning {
	return b.warnings
}

// Lookup returns the trimmed value for key. Blank values count as absent.
func (b *Bag) Lookup(key string) (string, bool) {
	raw, ok := b.values[key]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// String returns the value for key or fallback.
func (b *Bag) String(key, fallback string) string {
	if v, ok := b.Lookup(key); ok {
		return v
	}
	return fallback
}

// Bool parses key leniently.
func (b *Bag) Bool(key string, fallback bool) bool {
	raw, ok := b.Lookup(key)
	if !ok {
		return fallback
	}
	v, ok := ParseBool(raw)
	if !ok {
		b.warn(key, raw, strconv.FormatBool(fallback))
		return fallback
	}
	return v
}

// Int parses key as a base-10 integer.
func (b *Bag) Int(key string, fallback int) int {
	raw, ok := b.Lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		b.warn(key, raw, strconv.Itoa(fallback))
		return fallback
	}
	return v
}

// PositiveInt parses key and rejects values below 1.
func (b *Bag) PositiveInt(key string, fallback int) int {
	raw, ok := b.Lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		b.warn(key, raw, strconv.Itoa(fallback))
		return fallback
	}
	return v
}

// NonNegativeInt parses key and rejects values below 0.
func (b *Bag) NonNegativeInt(key string, fallback int) int {
	raw, ok := b.Lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		b.warn(key, raw, strconv.Itoa(fallback))
		return fallback
	}
	return v
}

// Add records a warning produced outside the typed parsers.
func (b *Bag) Add(w Warning) {
	b.warnings = append(b.warnings, w)
}

func (b *Bag) warn(key, raw, fallback string) {
	b.warnings = append(b.warnings, Warning{
		Code:    CodeInvalidProperty,
		Message: fmt.Sprintf("property %s has invalid value %q; using %s", key, raw, fallback),
	})
}

// ParseBool accepts true/false, 1/0, yes/no and on/off in any case.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, true
	case "false", "0", "no", "off", "f", "n":
		return false, true
	}
	return false, false
}

// ParseFloat parses a trimmed float value.
func ParseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
