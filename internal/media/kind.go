// Package media holds the media classification shared by the inspection,
// segmentation and markup layers.
package media

import "strings"

// Kind classifies a medium by how it is segmented and marked up.
type Kind string

const (
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
	KindAudio   Kind = "audio"
	KindUnknown Kind = "unknown"
)

// KindFromMIME maps a MIME type onto a Kind by its top-level type.
func KindFromMIME(mimeType string) Kind {
	top, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	switch top {
	case "video":
		return KindVideo
	case "image":
		return KindImage
	case "audio":
		return KindAudio
	}
	return KindUnknown
}

// ParseKind accepts the stored string form, defaulting to KindUnknown.
func ParseKind(raw string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindVideo, KindImage, KindAudio:
		return k
	}
	return KindUnknown
}

// Overlay reports whether boxes can be painted onto this kind of medium.
func (k Kind) Overlay() bool {
	return k == KindVideo || k == KindImage
}
