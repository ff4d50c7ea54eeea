package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediaflow/internal/jobs"
	"mediaflow/internal/pipeline"
	"mediaflow/internal/services"
)

// JobStore abstracts the persistence the job operations need.
type JobStore interface {
	CreateJob(ctx context.Context, req jobs.NewJob) (*jobs.Job, error)
	GetJob(ctx context.Context, id int64) (*jobs.Job, error)
	ListJobs(ctx context.Context, statuses ...jobs.Status) ([]*jobs.Job, error)
	Stats(ctx context.Context) (map[jobs.Status]int, error)
	MediaForJob(ctx context.Context, jobID int64) ([]*jobs.Media, error)
	Warnings(ctx context.Context, jobID int64) ([]jobs.Warning, error)
	TrackCounts(ctx context.Context, jobID int64) (map[int]int, error)
	RequestCancel(ctx context.Context, id int64) (bool, error)
	RemoveJob(ctx context.Context, id int64) (bool, error)
	ClearFinished(ctx context.Context) (int64, error)
}

// JobService exposes job operations returning API DTOs.
type JobService struct {
	store   JobStore
	catalog *pipeline.Catalog
}

// NewJobService constructs a JobService. A nil catalog uses the built-in
// pipelines.
func NewJobService(store JobStore, catalog *pipeline.Catalog) *JobService {
	if catalog == nil {
		catalog = pipeline.DefaultCatalog()
	}
	return &JobService{store: store, catalog: catalog}
}

// Submit validates the request and creates a pending job. The pipeline is
// snapshotted into the job, so later catalog edits do not affect it.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (Job, error) {
	p, err := s.catalog.Lookup(req.Pipeline)
	if err != nil {
		return Job{}, services.Wrap(services.ErrValidation, "api", "submit job", "Unknown pipeline", err)
	}
	if len(req.Media) == 0 {
		return Job{}, services.Wrap(services.ErrValidation, "api", "submit job", "At least one media path is required", nil)
	}

	newJob := jobs.NewJob{
		Pipeline:   p,
		Properties: req.Properties,
		Priority:   req.Priority,
		OutputDir:  strings.TrimSpace(req.OutputDir),
	}
	for _, m := range req.Media {
		path, err := resolveMediaPath(m.Path)
		if err != nil {
			return Job{}, err
		}
		newJob.Media = append(newJob.Media, jobs.NewMedia{Path: path, Properties: m.Properties})
	}

	job, err := s.store.CreateJob(ctx, newJob)
	if err != nil {
		return Job{}, services.Wrap(services.ErrValidation, "api", "submit job", "Could not create job", err)
	}
	return FromJob(job), nil
}

// List returns jobs filtered by status names.
func (s *JobService) List(ctx context.Context, statuses []string) ([]Job, error) {
	parsed := make([]jobs.Status, 0, len(statuses))
	for _, raw := range statuses {
		status, ok := jobs.ParseStatus(raw)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "api", "list jobs", fmt.Sprintf("Unknown status %q", raw), nil)
		}
		parsed = append(parsed, status)
	}
	list, err := s.store.ListJobs(ctx, parsed...)
	if err != nil {
		return nil, err
	}
	return FromJobs(list), nil
}

// Stats returns job counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeJobStats(stats), nil
}

// Describe fetches a job with its media, warnings and per-task track
// counts. A missing job yields nil without error.
func (s *JobService) Describe(ctx context.Context, id int64) (*Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)

	mediaList, err := s.store.MediaForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, m := range mediaList {
		dto.Media = append(dto.Media, FromMedia(m))
	}
	warnings, err := s.store.Warnings(ctx, id)
	if err != nil {
		return nil, err
	}
	dto.Warnings = FromWarnings(warnings)
	if dto.TrackCounts, err = s.store.TrackCounts(ctx, id); err != nil {
		return nil, err
	}
	return &dto, nil
}

// Cancel requests cancellation. It reports false when the job does not
// exist or already finished.
func (s *JobService) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.store.RequestCancel(ctx, id)
}

// Remove deletes a finished job with everything recorded for it.
func (s *JobService) Remove(ctx context.Context, id int64) (bool, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil || job == nil {
		return false, err
	}
	if !job.Status.Terminal() {
		return false, services.Wrap(services.ErrValidation, "api", "remove job",
			fmt.Sprintf("Job %d is %s; cancel it first", id, job.Status), nil)
	}
	return s.store.RemoveJob(ctx, id)
}

// ClearFinished removes every finished job.
func (s *JobService) ClearFinished(ctx context.Context) (int64, error) {
	return s.store.ClearFinished(ctx)
}

func resolveMediaPath(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "api", "submit job", "Media path is empty", nil)
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "api", "submit job", "Could not resolve media path", err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrNotFound, "api", "submit job", fmt.Sprintf("Media %q does not exist", abs), err)
	}
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "api", "submit job", "Could not stat media", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "api", "submit job", fmt.Sprintf("Media %q is a directory", abs), nil)
	}
	return abs, nil
}
