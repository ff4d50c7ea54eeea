package bus

import (
	"strings"

	"mediaflow/internal/markup"
	"mediaflow/internal/media"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
)

// MarkupQueue receives render requests.
const MarkupQueue = "markup"

// Message types.
const (
	TypeDetectionRequest  = "detection.request"
	TypeDetectionResponse = "detection.response"
	TypeMarkupRequest     = "markup.request"
	TypeMarkupResponse    = "markup.response"
)

// DetectionQueue names the queue served by workers for algorithm.
func DetectionQueue(algorithm string) string {
	return "detection." + strings.ToUpper(strings.TrimSpace(algorithm))
}

// DetectionRequest asks a detector to process one segment of one medium.
type DetectionRequest struct {
	JobID         int64             `json:"job_id"`
	MediaID       int64             `json:"media_id"`
	TaskIndex     int               `json:"task_index"`
	ActionIndex   int               `json:"action_index"`
	Algorithm     string            `json:"algorithm"`
	Action        string            `json:"action"`
	MediaPath     string            `json:"media_path"`
	MediaType     media.Kind        `json:"media_type"`
	MIMEType      string            `json:"mime_type"`
	MediaMetadata map[string]string `json:"media_metadata,omitempty"`
	Properties    map[string]string `json:"properties"`
	Segment       segment.Segment   `json:"segment"`
	FeedForward   *track.Track      `json:"feed_forward,omitempty"`
}

// DetectionResponse carries the tracks a detector found in a segment. Error
// is set when the detector could not process the segment.
type DetectionResponse struct {
	JobID       int64           `json:"job_id"`
	MediaID     int64           `json:"media_id"`
	TaskIndex   int             `json:"task_index"`
	ActionIndex int             `json:"action_index"`
	Segment     segment.Segment `json:"segment"`
	Tracks      []track.Track   `json:"tracks"`
	Error       string          `json:"error,omitempty"`
}

// MarkupRequest asks a renderer to paint boxes onto one medium.
type MarkupRequest struct {
	JobID       int64             `json:"job_id"`
	MediaID     int64             `json:"media_id"`
	TaskIndex   int               `json:"task_index"`
	MediaPath   string            `json:"media_path"`
	MediaType   media.Kind        `json:"media_type"`
	MIMEType    string            `json:"mime_type"`
	Destination string            `json:"destination"`
	Encoder     string            `json:"encoder"`
	Properties  map[string]string `json:"properties"`
	Boxes       markup.Snapshot   `json:"boxes"`
}

// MarkupResponse reports where the rendered output was written.
type MarkupResponse struct {
	JobID      int64  `json:"job_id"`
	MediaID    int64  `json:"media_id"`
	OutputPath string `json:"output_path"`
	Error      string `json:"error,omitempty"`
}
