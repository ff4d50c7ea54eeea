package inspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"mediaflow/internal/config"
	"mediaflow/internal/jobs"
	"mediaflow/internal/media"
	"mediaflow/internal/media/ffprobe"
	"mediaflow/internal/services"
)

// ErrNoFrames is returned for video whose frame count cannot be determined.
var ErrNoFrames = errors.New("media has no frames")

// Result is the outcome of inspecting one file.
type Result struct {
	MIMEType   string
	Kind       media.Kind
	FrameCount int
	FPS        float64
	DurationMs int
	Width      int
	Height     int
}

// Apply copies the inspection results onto m.
func (r Result) Apply(m *jobs.Media) {
	m.MIMEType = r.MIMEType
	m.Type = r.Kind
	m.FrameCount = r.FrameCount
	m.FPS = r.FPS
	m.DurationMs = r.DurationMs
	m.Width = r.Width
	m.Height = r.Height
}

// ProbeFunc runs ffprobe. Tests substitute it.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Inspector sniffs MIME types and probes timed media.
type Inspector struct {
	binary     string
	timeout    time.Duration
	defaultFPS float64
	probe      ProbeFunc
}

// New builds an inspector from the media section of cfg.
func New(cfg *config.Config) *Inspector {
	return &Inspector{
		binary:     cfg.FFprobeBinary(),
		timeout:    time.Duration(cfg.Media.ProbeTimeout) * time.Second,
		defaultFPS: float64(cfg.Media.DefaultFPS),
		probe:      ffprobe.Inspect,
	}
}

// WithProbe replaces the ffprobe runner.
func (i *Inspector) WithProbe(fn ProbeFunc) *Inspector {
	clone := *i
	clone.probe = fn
	return &clone
}

// Inspect sniffs path and, for video and audio, probes its timing.
// Media of an unknown kind is returned without error; the caller decides
// whether it can be processed.
func (i *Inspector) Inspect(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, services.Wrap(services.ErrNotFound, "inspect", "stat media", fmt.Sprintf("Media file %q does not exist", path), err)
		}
		return Result{}, services.Wrap(services.ErrValidation, "inspect", "stat media", "Media file is not readable", err)
	}
	if info.IsDir() {
		return Result{}, services.Wrap(services.ErrValidation, "inspect", "stat media", fmt.Sprintf("%q is a directory", path), nil)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "inspect", "detect mime", "Could not read media header", err)
	}
	mimeType, _, _ := strings.Cut(mime.String(), ";")
	res := Result{MIMEType: strings.TrimSpace(mimeType), Kind: media.KindFromMIME(mimeType)}

	switch res.Kind {
	case media.KindImage:
		res.FrameCount = 1
		return res, nil
	case media.KindVideo, media.KindAudio:
	default:
		return res, nil
	}

	probeCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	probed, err := i.probe(probeCtx, i.binary, path)
	if err != nil {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, "inspect", "ffprobe", "ffprobe did not finish in time", err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "inspect", "ffprobe", "ffprobe failed", err)
	}
	res.DurationMs = probed.DurationMs()

	if res.Kind == media.KindAudio {
		if res.DurationMs <= 0 {
			return Result{}, services.Wrap(services.ErrValidation, "inspect", "ffprobe", "Audio has no duration", nil)
		}
		return res, nil
	}

	if v, ok := probed.VideoStream(); ok {
		res.Width, res.Height = v.Width, v.Height
	}
	res.FPS = probed.FrameRate()
	if res.FPS <= 0 {
		res.FPS = i.defaultFPS
	}
	res.FrameCount = probed.FrameCount()
	if res.FrameCount <= 0 {
		return Result{}, services.Wrap(services.ErrValidation, "inspect", "ffprobe", "Could not determine frame count", ErrNoFrames)
	}
	return res, nil
}
