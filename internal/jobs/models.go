package jobs

import (
	"strings"
	"time"

	"mediaflow/internal/media"
	"mediaflow/internal/pipeline"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending              Status = "pending"
	StatusInProgress           Status = "in_progress"
	StatusComplete             Status = "complete"
	StatusCompleteWithWarnings Status = "complete_with_warnings"
	StatusCompleteWithErrors   Status = "complete_with_errors"
	StatusError                Status = "error"
	StatusCancelled            Status = "cancelled"
)

// CancelReason is the error message recorded when a job stops on request.
const CancelReason = "Cancellation requested by user"

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusComplete,
	StatusCompleteWithWarnings,
	StatusCompleteWithErrors,
	StatusError,
	StatusCancelled,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether no further work happens for the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusCompleteWithWarnings, StatusCompleteWithErrors, StatusError, StatusCancelled:
		return true
	}
	return false
}

// CompletionStatus derives the final status of a job that ran every task.
func CompletionStatus(counts WarningCounts) Status {
	switch {
	case counts.Errors > 0:
		return StatusCompleteWithErrors
	case counts.Warnings > 0:
		return StatusCompleteWithWarnings
	default:
		return StatusComplete
	}
}

// Job is one pipeline run over a set of media.
type Job struct {
	ID              int64
	UUID            string
	PipelineName    string
	Pipeline        pipeline.Pipeline
	Properties      map[string]string
	Priority        int
	Status          Status
	CurrentTask     int
	CancelRequested bool
	ErrorMessage    string
	OutputDir       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// Media is one input file of a job together with its inspection results.
type Media struct {
	ID           int64
	JobID        int64
	Path         string
	MIMEType     string
	Type         media.Kind
	FrameCount   int
	FPS          float64
	DurationMs   int
	Width        int
	Height       int
	Properties   map[string]string
	MarkupPath   string
	Failed       bool
	ErrorMessage string
}

// Metadata returns the inspection results as string properties for workers.
func (m *Media) Metadata() map[string]string {
	out := map[string]string{"MEDIA_TYPE": string(m.Type)}
	if m.MIMEType != "" {
		out["MIME_TYPE"] = m.MIMEType
	}
	if m.FrameCount > 0 {
		out["FRAME_COUNT"] = itoa(m.FrameCount)
	}
	if m.FPS > 0 {
		out["FPS"] = ftoa(m.FPS)
	}
	if m.DurationMs > 0 {
		out["DURATION"] = itoa(m.DurationMs)
	}
	if m.Width > 0 && m.Height > 0 {
		out["FRAME_WIDTH"] = itoa(m.Width)
		out["FRAME_HEIGHT"] = itoa(m.Height)
	}
	return out
}

// Severity separates recoverable notices from per-medium failures.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning is a non-fatal note recorded against a job, optionally scoped to
// one medium.
type Warning struct {
	ID        int64
	JobID     int64
	MediaID   int64
	Severity  Severity
	Code      string
	Message   string
	CreatedAt time.Time
}

// WarningCounts totals the warnings of a job by severity.
type WarningCounts struct {
	Warnings int
	Errors   int
}

// NewJob describes a job submission.
type NewJob struct {
	Pipeline   pipeline.Pipeline
	Properties map[string]string
	Priority   int
	OutputDir  string
	Media      []NewMedia
}

// NewMedia describes one input of a job submission.
type NewMedia struct {
	Path       string
	Properties map[string]string
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}
