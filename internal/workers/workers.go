package workers

import (
	"context"
	"log/slog"
	"sync"

	"mediaflow/internal/bus"
	"mediaflow/internal/dispatch"
	"mediaflow/internal/logging"
)

// Pool runs the built-in workers against a bus.
type Pool struct {
	wg sync.WaitGroup
}

// Start launches concurrency sidecar detectors per algorithm and the same
// number of manifest renderers. Workers stop when ctx ends or the bus
// closes.
func Start(ctx context.Context, b bus.Bus, algorithms []string, concurrency int, logger *slog.Logger) *Pool {
	concurrency = max(concurrency, 1)
	p := &Pool{}
	detector := SidecarDetector{}
	renderer := NewManifestRenderer()
	for _, algo := range algorithms {
		for range concurrency {
			p.run(logger, func() error {
				return dispatch.ServeDetection(ctx, b, algo, detector.Detect, logger)
			})
		}
	}
	for range concurrency {
		p.run(logger, func() error {
			return dispatch.ServeMarkup(ctx, b, renderer.Render, logger)
		})
	}
	logger.Info("built-in workers started",
		logging.String(logging.FieldEventType, "workers_started"),
		logging.Any("algorithms", algorithms),
		logging.Int("concurrency", concurrency),
	)
	return p
}

func (p *Pool) run(logger *slog.Logger, serve func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := serve(); err != nil {
			logging.ErrorWithContext(logger, "worker stopped", "worker_failed", logging.Error(err))
		}
	}()
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
