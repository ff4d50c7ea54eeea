package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediaflow/internal/jobs"
	"mediaflow/internal/services"
	"mediaflow/internal/track"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"inspect", "ffprobe", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerClassifiesInconsistentTracks(t *testing.T) {
	err := services.Wrap(nil, "markup", "build", "", fmt.Errorf("track 3: %w", track.ErrInconsistent))
	if !errors.Is(err, services.ErrInconsistent) {
		t.Fatalf("expected inconsistent marker, got %v", err)
	}
	if hint := services.ErrorHint(err); hint == "" {
		t.Fatal("expected a hint for inconsistent tracks")
	}

	err = services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) || !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected default wrap %v", err)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	cancelled := services.Wrap(services.ErrCancelled, "workflow", "task", "cancel requested", nil)
	if status := services.FailureStatus(cancelled); status != jobs.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", status)
	}

	inconsistent := services.Wrap(services.ErrInconsistent, "detection", "persist", "bad track", nil)
	if status := services.FailureStatus(inconsistent); status != jobs.StatusError {
		t.Fatalf("expected error for inconsistent tracks, got %s", status)
	}

	if status := services.FailureStatus(nil); status != jobs.StatusError {
		t.Fatalf("expected error for nil error, got %s", status)
	}
}
