// Package jobaccess gives the CLI one set of job operations whether the
// daemon is reachable over IPC or the job database must be opened directly.
package jobaccess

import (
	"context"

	"mediaflow/internal/api"
	"mediaflow/internal/ipc"
	"mediaflow/internal/jobs"
	"mediaflow/internal/pipeline"
)

// Access provides job operations regardless of IPC or direct store backing.
type Access interface {
	Submit(ctx context.Context, req api.SubmitRequest) (api.Job, error)
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id int64) (*api.Job, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	Remove(ctx context.Context, id int64) (bool, error)
	ClearFinished(ctx context.Context) (int64, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct database access.
func NewStoreAccess(store *jobs.Store, catalog *pipeline.Catalog) Access {
	return &storeAccess{service: api.NewJobService(store, catalog)}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Submit(_ context.Context, req api.SubmitRequest) (api.Job, error) {
	resp, err := a.client.JobSubmit(req)
	if err != nil {
		return api.Job{}, err
	}
	return resp.Job, nil
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.Workflow.JobStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.Job, error) {
	resp, err := a.client.JobList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.Job, error) {
	resp, err := a.client.JobDescribe(id)
	if err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &resp.Job, nil
}

func (a *ipcAccess) Cancel(_ context.Context, id int64) (bool, error) {
	resp, err := a.client.JobCancel(id)
	if err != nil {
		return false, err
	}
	return resp.Cancelled, nil
}

func (a *ipcAccess) Remove(_ context.Context, id int64) (bool, error) {
	resp, err := a.client.JobRemove(id)
	if err != nil {
		return false, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearFinished(_ context.Context) (int64, error) {
	resp, err := a.client.JobClearFinished()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

type storeAccess struct {
	service *api.JobService
}

func (a *storeAccess) Submit(ctx context.Context, req api.SubmitRequest) (api.Job, error) {
	return a.service.Submit(ctx, req)
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.Job, error) {
	return a.service.List(ctx, statuses)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.Job, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) Cancel(ctx context.Context, id int64) (bool, error) {
	return a.service.Cancel(ctx, id)
}

func (a *storeAccess) Remove(ctx context.Context, id int64) (bool, error) {
	return a.service.Remove(ctx, id)
}

func (a *storeAccess) ClearFinished(ctx context.Context) (int64, error) {
	return a.service.ClearFinished(ctx)
}
