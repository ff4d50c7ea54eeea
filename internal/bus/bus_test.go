package bus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"mediaflow/internal/bus"
	"mediaflow/internal/markup"
	"mediaflow/internal/media"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
)

func TestMemoryPublishReceive(t *testing.T) {
	b := bus.NewMemory(4)
	defer b.Close()
	ctx := context.Background()

	msg, err := bus.NewMessage("detection.FACE", bus.TypeDetectionRequest, map[string]int{"n": 1})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.NoError(t, b.Publish(ctx, msg))

	got, err := b.Receive(ctx, "detection.FACE")
	require.NoError(t, err)
	require.Equal(t, msg.ID, got.ID)
	require.False(t, got.PublishedAt.IsZero())

	var body map[string]int
	require.NoError(t, bus.DecodeBody(got, &body))
	require.Equal(t, 1, body["n"])

	stats := b.Stats()
	require.Equal(t, uint64(1), stats.Published)
	require.Equal(t, uint64(1), stats.Delivered)
	require.Equal(t, 0, stats.Depths["detection.FACE"])
}

func TestMemoryCompetingConsumersReceiveEachMessageOnce(t *testing.T) {
	b := bus.NewMemory(64)
	defer b.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const total = 50
	for i := 0; i < total; i++ {
		msg, err := bus.NewMessage("work", "job", i)
		require.NoError(t, err)
		require.NoError(t, b.Publish(ctx, msg))
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				recvCtx, recvCancel := context.WithTimeout(ctx, 50*time.Millisecond)
				msg, err := b.Receive(recvCtx, "work")
				recvCancel()
				if err != nil {
					return
				}
				mu.Lock()
				seen[msg.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, total)
	for id, n := range seen {
		require.Equalf(t, 1, n, "message %s delivered %d times", id, n)
	}
}

func TestMemoryPublishBlocksUntilContextDone(t *testing.T) {
	b := bus.NewMemory(1)
	defer b.Close()

	require.NoError(t, b.Publish(context.Background(), bus.Message{Queue: "q"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Publish(ctx, bus.Message{Queue: "q"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryDeleteAndClose(t *testing.T) {
	b := bus.NewMemory(2)
	ctx := context.Background()

	require.ErrorIs(t, b.Publish(ctx, bus.Message{Queue: "  "}), bus.ErrNoQueue)

	require.NoError(t, b.Publish(ctx, bus.Message{Queue: "reply.1"}))
	require.NoError(t, b.Delete("reply.1"))
	require.ErrorIs(t, b.Publish(ctx, bus.Message{Queue: "reply.1"}), bus.ErrQueueDeleted)
	_, err := b.Receive(ctx, "reply.1")
	require.ErrorIs(t, err, bus.ErrQueueDeleted)

	done := make(chan error, 1)
	go func() {
		_, err := b.Receive(ctx, "idle")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	select {
	case err := <-done:
		require.True(t, errors.Is(err, bus.ErrClosed), "unexpected error %v", err)
	case <-time.After(time.Second):
		t.Fatal("receive did not unblock on close")
	}
	require.ErrorIs(t, b.Publish(ctx, bus.Message{Queue: "idle"}), bus.ErrClosed)
}

func TestReplyCarriesCorrelation(t *testing.T) {
	req := bus.Message{Queue: "detection.FACE", ReplyTo: "reply.abc", CorrelationID: "corr-1"}
	reply, err := bus.Reply(req, bus.TypeDetectionResponse, bus.DetectionResponse{JobID: 3})
	require.NoError(t, err)
	require.Equal(t, "reply.abc", reply.Queue)
	require.Equal(t, "corr-1", reply.CorrelationID)
}

func TestDetectionQueueNormalizesAlgorithm(t *testing.T) {
	require.Equal(t, "detection.FACECV", bus.DetectionQueue(" facecv "))
}

func TestCodecRoundTripsPayloads(t *testing.T) {
	tr, err := track.New("FACE", []track.Detection{
		{X: 1, Y: 2, Width: 3, Height: 4, Confidence: 0.75, FrameOffset: 9, TimeOffsetMs: 300, Properties: map[string]string{"CLASSIFICATION": "face"}},
	}, map[string]string{"ROTATION": "90"})
	require.NoError(t, err)

	req := bus.DetectionRequest{
		JobID:       7,
		MediaID:     11,
		TaskIndex:   1,
		ActionIndex: 0,
		Algorithm:   "FACECV",
		MediaPath:   "/media/a.mp4",
		MediaType:   media.KindVideo,
		Properties:  map[string]string{"TARGET_SEGMENT_LENGTH": "10"},
		Segment:     segment.Segment{Start: 9, End: 9, Unit: segment.UnitFrames, Frames: []int{9}},
		FeedForward: &tr,
	}
	data, err := bus.Encode(req)
	require.NoError(t, err)

	var decoded bus.DetectionRequest
	require.NoError(t, bus.Decode(data, &decoded))
	if diff := cmp.Diff(req, decoded); diff != "" {
		t.Fatalf("detection request mismatch (-want +got):\n%s", diff)
	}

	m, err := markup.BuildMap([]track.Track{tr}, markup.DefaultOptions(), nil)
	require.NoError(t, err)
	mreq := bus.MarkupRequest{JobID: 7, MediaID: 11, Destination: "/out/a-11.webm", Boxes: m.Snapshot()}
	data, err = bus.Encode(mreq)
	require.NoError(t, err)

	var mdecoded bus.MarkupRequest
	require.NoError(t, bus.Decode(data, &mdecoded))
	if diff := cmp.Diff(mreq, mdecoded); diff != "" {
		t.Fatalf("markup request mismatch (-want +got):\n%s", diff)
	}
}
