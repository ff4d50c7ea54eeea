package api

import (
	"maps"
	"slices"
	"time"

	"mediaflow/internal/bus"
	"mediaflow/internal/deps"
	"mediaflow/internal/jobs"
	"mediaflow/internal/stage"
	"mediaflow/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:              job.ID,
		UUID:            job.UUID,
		Pipeline:        job.PipelineName,
		Status:          string(job.Status),
		CurrentTask:     job.CurrentTask,
		TaskCount:       len(job.Pipeline.Tasks),
		Priority:        job.Priority,
		CancelRequested: job.CancelRequested,
		ErrorMessage:    job.ErrorMessage,
		OutputDir:       job.OutputDir,
		Properties:      maps.Clone(job.Properties),
		CreatedAt:       FormatTime(job.CreatedAt),
		UpdatedAt:       FormatTime(job.UpdatedAt),
	}
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(list []*jobs.Job) []Job {
	if len(list) == 0 {
		return nil
	}
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromMedia converts a media record.
func FromMedia(m *jobs.Media) Media {
	if m == nil {
		return Media{}
	}
	return Media{
		ID:           m.ID,
		Path:         m.Path,
		MIMEType:     m.MIMEType,
		Type:         string(m.Type),
		FrameCount:   m.FrameCount,
		FPS:          m.FPS,
		DurationMs:   m.DurationMs,
		Width:        m.Width,
		Height:       m.Height,
		MarkupPath:   m.MarkupPath,
		Failed:       m.Failed,
		ErrorMessage: m.ErrorMessage,
	}
}

// FromWarnings converts stored warnings in their stored order.
func FromWarnings(list []jobs.Warning) []Warning {
	if len(list) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(list))
	for _, w := range list {
		out = append(out, Warning{
			MediaID:   w.MediaID,
			Severity:  string(w.Severity),
			Code:      w.Code,
			Message:   w.Message,
			CreatedAt: FormatTime(w.CreatedAt),
		})
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Workers:     summary.Workers,
		JobStats:    MergeJobStats(summary.JobStats),
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob)
		wf.LastJob = &job
	}
	return wf
}

// FromBusStats converts bus counters.
func FromBusStats(stats bus.Stats) BusStats {
	return BusStats{
		Published: stats.Published,
		Delivered: stats.Delivered,
		Depths:    maps.Clone(stats.Depths),
	}
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// MergeJobStats keys job counts by status string, including zero counts
// for every known status.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	out := make(map[string]int, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(health))
	for _, name := range slices.Sorted(maps.Keys(health)) {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
