package services

import (
	"errors"
	"fmt"
	"strings"

	"mediaflow/internal/jobs"
	"mediaflow/internal/track"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrInconsistent  = errors.New("internal consistency error")
	ErrCancelled     = errors.New("cancelled")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
		if errors.Is(err, track.ErrInconsistent) {
			marker = ErrInconsistent
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a task error to the job status the workflow manager
// should persist after the task fails.
func FailureStatus(err error) jobs.Status {
	if errors.Is(err, ErrCancelled) {
		return jobs.StatusCancelled
	}
	return jobs.StatusError
}

// ErrorHint returns a short operator hint for the marker carried by err.
func ErrorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInconsistent), errors.Is(err, track.ErrInconsistent):
		return "detector returned malformed tracks; inspect the detection worker output"
	case errors.Is(err, ErrConfiguration):
		return "check the pipeline catalog and job properties"
	case errors.Is(err, ErrValidation):
		return "input rejected; fix the job request and resubmit"
	case errors.Is(err, ErrExternalTool):
		return "verify the external tool is installed and runnable"
	case errors.Is(err, ErrTimeout):
		return "workers did not answer in time; check that workers are running"
	case errors.Is(err, ErrNotFound):
		return "referenced media or job no longer exists"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
