package stage

import (
	"context"

	"mediaflow/internal/jobs"
)

// Task is one pipeline task of one job, handed to the handler for its
// action type. Media lists the media still being processed.
type Task struct {
	Job       *jobs.Job
	Media     []*jobs.Media
	TaskIndex int
	OutputDir string
}

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *Task) error
	Execute(context.Context, *Task) error
	HealthCheck(context.Context) Health
}
