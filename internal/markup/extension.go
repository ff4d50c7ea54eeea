package markup

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"mediaflow/internal/media"
	"mediaflow/internal/props"
)

// Supported markup video encoders.
const (
	EncoderVP9   = "vp9"
	EncoderH264  = "h264"
	EncoderMJPEG = "mjpeg"
)

const (
	imageExtension   = ".png"
	mjpegExtension   = ".avi"
	genericExtension = ".bin"
)

var encoderExtensions = map[string]string{
	EncoderVP9:   ".webm",
	EncoderH264:  ".mp4",
	EncoderMJPEG: mjpegExtension,
}

// MarkupExtension picks the container extension of a rendered overlay.
// Unknown encoders fall back to the MJPEG container with a warning.
func MarkupExtension(kind media.Kind, encoder string) (string, []props.Warning) {
	if kind == media.KindImage {
		return imageExtension, nil
	}
	key := strings.ToLower(strings.TrimSpace(encoder))
	if ext, ok := encoderExtensions[key]; ok {
		return ext, nil
	}
	return mjpegExtension, []props.Warning{{
		Code:    props.CodeUnknownEncoder,
		Message: fmt.Sprintf("unsupported markup video encoder %q; writing %s", encoder, mjpegExtension),
	}}
}

// MediaExtension picks the extension for media that is copied rather than
// painted. Unresolvable MIME types fall back to a generic binary extension
// with a warning.
func MediaExtension(mimeType string) (string, []props.Warning) {
	name := strings.ToLower(strings.TrimSpace(mimeType))
	if name != "" {
		if m := mimetype.Lookup(name); m != nil && m.Extension() != "" {
			return m.Extension(), nil
		}
	}
	return genericExtension, []props.Warning{{
		Code:    props.CodeUnknownMIME,
		Message: fmt.Sprintf("cannot resolve extension for MIME type %q; writing %s", mimeType, genericExtension),
	}}
}

// OutputExtension chooses between MarkupExtension and MediaExtension by kind.
func OutputExtension(kind media.Kind, mimeType, encoder string) (string, []props.Warning) {
	if kind.Overlay() {
		return MarkupExtension(kind, encoder)
	}
	return MediaExtension(mimeType)
}
