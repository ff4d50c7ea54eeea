package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"mediaflow/internal/bus"
	"mediaflow/internal/logging"
	"mediaflow/internal/track"
)

// DetectFunc processes one segment. Returned errors are reported back to the
// dispatcher in the response rather than ending the worker.
type DetectFunc func(ctx context.Context, req bus.DetectionRequest) ([]track.Track, error)

// RenderFunc paints one medium and returns the path it wrote.
type RenderFunc func(ctx context.Context, req bus.MarkupRequest) (string, error)

// ServeDetection consumes the queue of algorithm until ctx ends or the bus
// closes.
func ServeDetection(ctx context.Context, b bus.Bus, algorithm string, fn DetectFunc, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "detector").With(logging.String("algorithm", algorithm))
	return serve(ctx, b, bus.DetectionQueue(algorithm), logger, func(ctx context.Context, msg bus.Message) (any, string) {
		var req bus.DetectionRequest
		if err := bus.DecodeBody(msg, &req); err != nil {
			return bus.DetectionResponse{Error: err.Error()}, bus.TypeDetectionResponse
		}
		resp := bus.DetectionResponse{
			JobID:       req.JobID,
			MediaID:     req.MediaID,
			TaskIndex:   req.TaskIndex,
			ActionIndex: req.ActionIndex,
			Segment:     req.Segment,
		}
		tracks, err := fn(ctx, req)
		if err != nil {
			resp.Error = err.Error()
			return resp, bus.TypeDetectionResponse
		}
		resp.Tracks = tracks
		return resp, bus.TypeDetectionResponse
	})
}

// ServeMarkup consumes the markup queue until ctx ends or the bus closes.
func ServeMarkup(ctx context.Context, b bus.Bus, fn RenderFunc, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "renderer")
	return serve(ctx, b, bus.MarkupQueue, logger, func(ctx context.Context, msg bus.Message) (any, string) {
		var req bus.MarkupRequest
		if err := bus.DecodeBody(msg, &req); err != nil {
			return bus.MarkupResponse{Error: err.Error()}, bus.TypeMarkupResponse
		}
		resp := bus.MarkupResponse{JobID: req.JobID, MediaID: req.MediaID}
		path, err := fn(ctx, req)
		if err != nil {
			resp.Error = err.Error()
			return resp, bus.TypeMarkupResponse
		}
		resp.OutputPath = path
		return resp, bus.TypeMarkupResponse
	})
}

func serve(ctx context.Context, b bus.Bus, queue string, logger *slog.Logger, handle func(context.Context, bus.Message) (any, string)) error {
	logger.Debug("worker started", logging.String("queue", queue))
	for {
		msg, err := b.Receive(ctx, queue)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, bus.ErrClosed) {
				return nil
			}
			return err
		}
		payload, msgType := handle(ctx, msg)
		if msg.ReplyTo == "" {
			logger.Debug("request without reply queue", logging.String("message_id", msg.ID))
			continue
		}
		reply, err := bus.Reply(msg, msgType, payload)
		if err != nil {
			logging.ErrorWithContext(logger, "encode reply failed", "worker_reply_encode", logging.Error(err))
			continue
		}
		if err := b.Publish(ctx, reply); err != nil {
			if ctx.Err() != nil || errors.Is(err, bus.ErrClosed) {
				return nil
			}
			// The dispatcher gave up and deleted its reply queue.
			if errors.Is(err, bus.ErrQueueDeleted) {
				logger.Debug("reply queue gone", logging.String("queue", msg.ReplyTo))
				continue
			}
			return err
		}
	}
}
