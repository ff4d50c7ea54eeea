package testsupport

import (
	"context"
	"testing"

	"mediaflow/internal/config"
	"mediaflow/internal/jobs"
	"mediaflow/internal/pipeline"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob submits a job running the named built-in pipeline over paths.
func NewJob(t testing.TB, store *jobs.Store, pipelineName string, paths ...string) *jobs.Job {
	t.Helper()

	p, err := pipeline.DefaultCatalog().Lookup(pipelineName)
	if err != nil {
		t.Fatalf("pipeline lookup: %v", err)
	}
	req := jobs.NewJob{Pipeline: p}
	for _, path := range paths {
		req.Media = append(req.Media, jobs.NewMedia{Path: path})
	}
	job, err := store.CreateJob(context.Background(), req)
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return job
}
