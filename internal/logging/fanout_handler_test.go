package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsEachLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warn := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(newFanoutHandler(debug, warn)).With("job_id", 4).WithGroup("g")
	logger.Info("info line", "k", "v")
	logger.Warn("warn line")

	if got := debugBuf.String(); !strings.Contains(got, "info line") || !strings.Contains(got, "warn line") {
		t.Fatalf("debug handler missing records: %q", got)
	}
	if got := warnBuf.String(); strings.Contains(got, "info line") || !strings.Contains(got, "warn line") {
		t.Fatalf("warn handler got wrong records: %q", got)
	}
	if !strings.Contains(debugBuf.String(), "job_id=4") || !strings.Contains(debugBuf.String(), "g.k=v") {
		t.Fatalf("attrs or group not propagated: %q", debugBuf.String())
	}
}

type failingHandler struct{ NoopHandler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }

func TestFanoutHandlerJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	h := newFanoutHandler(failingHandler{}, slog.NewTextHandler(&buf, nil))
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !strings.Contains(buf.String(), "msg=m") {
		t.Fatalf("healthy handler should still receive record: %q", buf.String())
	}
}
