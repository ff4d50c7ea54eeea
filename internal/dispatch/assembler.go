package dispatch

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"mediaflow/internal/bus"
	"mediaflow/internal/jobs"
	"mediaflow/internal/markup"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/props"
	"mediaflow/internal/segment"
	"mediaflow/internal/textutil"
	"mediaflow/internal/track"
)

// markupDirName is the per-job directory holding rendered media.
const markupDirName = "markup"

// ActionRef locates an action inside a job's pipeline.
type ActionRef struct {
	TaskIndex   int
	ActionIndex int
	Action      pipeline.Action
}

// CombinedProperties layers action defaults, job properties and media
// properties, later layers winning.
func CombinedProperties(action pipeline.Action, job *jobs.Job, m *jobs.Media) map[string]string {
	var jobProps, mediaProps map[string]string
	if job != nil {
		jobProps = job.Properties
	}
	if m != nil {
		mediaProps = m.Properties
	}
	return props.Merge(action.Properties, jobProps, mediaProps)
}

// DetectionRequests builds one request per segment. feedForward, when set,
// is the upstream track the segments were derived from and travels with
// every request.
func DetectionRequests(job *jobs.Job, m *jobs.Media, ref ActionRef, segments []segment.Segment, feedForward *track.Track, properties map[string]string) []bus.DetectionRequest {
	if len(segments) == 0 {
		return nil
	}
	metadata := m.Metadata()
	out := make([]bus.DetectionRequest, 0, len(segments))
	for _, seg := range segments {
		req := bus.DetectionRequest{
			JobID:         job.ID,
			MediaID:       m.ID,
			TaskIndex:     ref.TaskIndex,
			ActionIndex:   ref.ActionIndex,
			Algorithm:     strings.ToUpper(strings.TrimSpace(ref.Action.Algorithm)),
			Action:        ref.Action.Name,
			MediaPath:     m.Path,
			MediaType:     m.Type,
			MIMEType:      m.MIMEType,
			MediaMetadata: maps.Clone(metadata),
			Properties:    maps.Clone(properties),
			Segment:       seg,
		}
		if feedForward != nil {
			ff := *feedForward
			req.FeedForward = &ff
		}
		out = append(out, req)
	}
	return out
}

// MarkupRequest builds the render request for one medium.
func MarkupRequest(job *jobs.Job, m *jobs.Media, taskIndex int, boxes *markup.BoundingBoxMap, destination string, opts markup.Options, properties map[string]string) bus.MarkupRequest {
	req := bus.MarkupRequest{
		JobID:       job.ID,
		MediaID:     m.ID,
		TaskIndex:   taskIndex,
		MediaPath:   m.Path,
		MediaType:   m.Type,
		MIMEType:    m.MIMEType,
		Destination: destination,
		Encoder:     opts.VideoEncoder,
		Properties:  maps.Clone(properties),
	}
	if boxes != nil {
		req.Boxes = boxes.Snapshot()
	}
	return req
}

// MarkupDestination returns
// <outputDir>/<jobID>/markup/<sanitized media base>-<mediaID><ext> together
// with any warning raised while choosing the extension.
func MarkupDestination(outputDir string, job *jobs.Job, m *jobs.Media, encoder string) (string, []props.Warning) {
	ext, warnings := markup.OutputExtension(m.Type, m.MIMEType, encoder)
	base := filepath.Base(m.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = textutil.SanitizeFileName(base)
	if base == "" || base == "." {
		base = "media"
	}
	name := fmt.Sprintf("%s-%d%s", base, m.ID, ext)
	return filepath.Join(outputDir, fmt.Sprint(job.ID), markupDirName, name), warnings
}
