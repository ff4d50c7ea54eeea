package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a job in a transport-friendly format. Media, Warnings and
// TrackCounts are only filled in by Describe.
type Job struct {
	ID              int64             `json:"id"`
	UUID            string            `json:"uuid"`
	Pipeline        string            `json:"pipeline"`
	Status          string            `json:"status"`
	CurrentTask     int               `json:"currentTask"`
	TaskCount       int               `json:"taskCount"`
	Priority        int               `json:"priority"`
	CancelRequested bool              `json:"cancelRequested"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	OutputDir       string            `json:"outputDir,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
	Media           []Media           `json:"media,omitempty"`
	Warnings        []Warning         `json:"warnings,omitempty"`
	TrackCounts     map[int]int       `json:"trackCounts,omitempty"`
}

// Media describes one medium of a job.
type Media struct {
	ID           int64   `json:"id"`
	Path         string  `json:"path"`
	MIMEType     string  `json:"mimeType,omitempty"`
	Type         string  `json:"type"`
	FrameCount   int     `json:"frameCount,omitempty"`
	FPS          float64 `json:"fps,omitempty"`
	DurationMs   int     `json:"durationMs,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	MarkupPath   string  `json:"markupPath,omitempty"`
	Failed       bool    `json:"failed"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// Warning describes a note recorded while a job ran.
type Warning struct {
	MediaID   int64  `json:"mediaId,omitempty"`
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// SubmitMedia names one medium of a submitted job.
type SubmitMedia struct {
	Path       string            `json:"path"`
	Properties map[string]string `json:"properties,omitempty"`
}

// SubmitRequest creates a job running the named catalog pipeline.
type SubmitRequest struct {
	Pipeline   string            `json:"pipeline"`
	Media      []SubmitMedia     `json:"media"`
	Properties map[string]string `json:"properties,omitempty"`
	Priority   int               `json:"priority"`
	OutputDir  string            `json:"outputDir,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Workers     int            `json:"workers"`
	JobStats    map[string]int `json:"jobStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastJob     *Job           `json:"lastJob,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"databasePath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Bus          BusStats           `json:"bus"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// BusStats reports in-process bus activity.
type BusStats struct {
	Published uint64         `json:"published"`
	Delivered uint64         `json:"delivered"`
	Depths    map[string]int `json:"depths,omitempty"`
}
