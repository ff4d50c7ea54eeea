// Package ffprobe runs ffprobe and decodes the parts of its JSON output
// needed to size segmentation: frame count, frame rate, duration and
// dimensions of the primary video stream.
package ffprobe
