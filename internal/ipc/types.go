package ipc

import "mediaflow/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse = api.DaemonStatus

// JobSubmitRequest creates a job.
type JobSubmitRequest = api.SubmitRequest

// JobSubmitResponse contains the created job.
type JobSubmitResponse struct {
	Job api.Job `json:"job"`
}

// JobListRequest filters job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains job entries.
type JobListResponse struct {
	Jobs []api.Job `json:"jobs"`
}

// JobDescribeRequest fetches a single job by id.
type JobDescribeRequest struct {
	ID int64 `json:"id"`
}

// JobDescribeResponse contains a single job with media and warnings.
type JobDescribeResponse struct {
	Found bool    `json:"found"`
	Job   api.Job `json:"job"`
}

// JobCancelRequest requests cancellation of a job.
type JobCancelRequest struct {
	ID int64 `json:"id"`
}

// JobCancelResponse reports whether a running or pending job was flagged.
type JobCancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// JobRemoveRequest removes a finished job.
type JobRemoveRequest struct {
	ID int64 `json:"id"`
}

// JobRemoveResponse reports whether the job was removed.
type JobRemoveResponse struct {
	Removed bool `json:"removed"`
}

// JobClearFinishedRequest removes every finished job.
type JobClearFinishedRequest struct{}

// JobClearFinishedResponse reports number of removed jobs.
type JobClearFinishedResponse struct {
	Removed int64 `json:"removed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int    `json:"schema_version"`
	IntegrityCheck   bool   `json:"integrity_check"`
	TotalJobs        int    `json:"total_jobs"`
	Error            string `json:"error"`
}
