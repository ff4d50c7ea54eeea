package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mediaflow/internal/bus"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

// replyQueuePrefix prefixes the private queue each batch listens on.
const replyQueuePrefix = "reply."

// Dispatcher publishes work requests and gathers their responses.
type Dispatcher struct {
	bus     bus.Bus
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a dispatcher. A non-positive timeout waits until ctx ends.
func New(b bus.Bus, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		bus:     b,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
	}
}

// Detect sends every request to its algorithm queue and returns the
// responses in request order.
func (d *Dispatcher) Detect(ctx context.Context, reqs []bus.DetectionRequest) ([]bus.DetectionResponse, error) {
	return roundTrip[bus.DetectionRequest, bus.DetectionResponse](ctx, d, reqs, bus.TypeDetectionRequest, func(r bus.DetectionRequest) string {
		return bus.DetectionQueue(r.Algorithm)
	})
}

// Render sends one markup request and waits for its response.
func (d *Dispatcher) Render(ctx context.Context, req bus.MarkupRequest) (bus.MarkupResponse, error) {
	resps, err := roundTrip[bus.MarkupRequest, bus.MarkupResponse](ctx, d, []bus.MarkupRequest{req}, bus.TypeMarkupRequest, func(bus.MarkupRequest) string {
		return bus.MarkupQueue
	})
	if err != nil {
		return bus.MarkupResponse{}, err
	}
	return resps[0], nil
}

func roundTrip[Req, Resp any](ctx context.Context, d *Dispatcher, reqs []Req, msgType string, queueFor func(Req) string) ([]Resp, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	var cancel context.CancelFunc
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	batch := uuid.NewString()
	replyQueue := replyQueuePrefix + batch
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldCorrelationID, batch))
	defer func() {
		if err := d.bus.Delete(replyQueue); err != nil && !errors.Is(err, bus.ErrClosed) {
			logger.Debug("reply queue delete failed", logging.Error(err))
		}
	}()

	pending := make(map[string]int, len(reqs))
	msgs := make([]bus.Message, 0, len(reqs))
	for i, req := range reqs {
		msg, err := bus.NewMessage(queueFor(req), msgType, req)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "dispatch", "encode request", "Could not encode work request", err)
		}
		msg.ReplyTo = replyQueue
		msg.CorrelationID = uuid.NewString()
		pending[msg.CorrelationID] = i
		msgs = append(msgs, msg)
	}

	// Publish concurrently with receiving so a full reply queue cannot stall
	// workers while requests are still queued behind them.
	publishErr := make(chan error, 1)
	go func() {
		for _, msg := range msgs {
			if err := d.bus.Publish(ctx, msg); err != nil {
				publishErr <- err
				return
			}
		}
		publishErr <- nil
	}()

	logger.Debug("work published", logging.String("type", msgType), logging.Int("requests", len(reqs)))

	out := make([]Resp, len(reqs))
	for len(pending) > 0 {
		msg, err := d.bus.Receive(ctx, replyQueue)
		if err != nil {
			select {
			case perr := <-publishErr:
				if perr != nil && !errors.Is(perr, context.Canceled) && !errors.Is(perr, context.DeadlineExceeded) {
					err = perr
				}
			default:
			}
			return nil, d.receiveError(ctx, err, len(pending), len(reqs))
		}
		idx, ok := pending[msg.CorrelationID]
		if !ok {
			logging.WarnWithContext(logger, "uncorrelated response dropped", "dispatch_uncorrelated",
				logging.String("message_id", msg.ID),
				logging.String(logging.FieldErrorHint, "a worker replied to a request from another batch"),
				logging.String(logging.FieldImpact, "response ignored"),
			)
			continue
		}
		if err := bus.DecodeBody(msg, &out[idx]); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "dispatch", "decode response", "Worker sent an unreadable response", err)
		}
		delete(pending, msg.CorrelationID)
	}
	if err := <-publishErr; err != nil {
		return nil, services.Wrap(services.ErrTransient, "dispatch", "publish", "Could not publish work request", err)
	}
	return out, nil
}

func (d *Dispatcher) receiveError(ctx context.Context, err error, missing, total int) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "dispatch", "await responses",
			fmt.Sprintf("%d of %d responses missing after %s", missing, total, d.timeout), err)
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrCancelled, "dispatch", "await responses", "Dispatch cancelled", ctx.Err())
	default:
		return services.Wrap(services.ErrTransient, "dispatch", "await responses", "Bus receive failed", err)
	}
}
