package jobaccess

import (
	"fmt"

	"mediaflow/internal/ipc"
	"mediaflow/internal/jobs"
	"mediaflow/internal/pipeline"
)

// Session represents a job access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote is true when the session talks to a running daemon.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to direct
// store access using catalog to validate submissions.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*jobs.Store, error),
	catalog *pipeline.Catalog,
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				Remote: true,
				close:  client.Close,
			}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open job store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open job store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(store, catalog),
		close:  store.Close,
	}, nil
}
