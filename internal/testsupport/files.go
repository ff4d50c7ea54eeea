package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// pngHeader is enough of a PNG stream for content sniffing.
var pngHeader = []byte{
	0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x91, 0x68, 0x36,
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePNG writes a file that sniffs as image/png.
func WritePNG(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, pngHeader)
}

// mp4Header is an ftyp box that sniffs as video/mp4.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

// wavHeader is a RIFF header that sniffs as audio/wav.
var wavHeader = []byte{
	'R', 'I', 'F', 'F', 0x24, 0x00, 0x00, 0x00,
	'W', 'A', 'V', 'E', 'f', 'm', 't', ' ',
}

// WriteMP4 writes a file that sniffs as video/mp4.
func WriteMP4(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, mp4Header)
}

// WriteWAV writes a file that sniffs as audio/wav.
func WriteWAV(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, wavHeader)
}

// FFprobeVideo is ffprobe output for a 10 second, 250 frame clip.
const FFprobeVideo = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 640, "height": 360,
     "nb_frames": "250", "r_frame_rate": "25/1", "avg_frame_rate": "25/1", "duration": "10.000"}
  ],
  "format": {"duration": "10.000000", "format_name": "mov,mp4"}
}`

// FFprobeAudio is ffprobe output for a 1.5 second audio file.
const FFprobeAudio = `{
  "streams": [{"index": 0, "codec_type": "audio", "codec_name": "pcm_s16le"}],
  "format": {"duration": "1.500000", "format_name": "wav"}
}`
