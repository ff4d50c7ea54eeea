package config

import (
	"slices"

	"mediaflow/internal/markup"
)

const (
	defaultDataDir                   = "~/.local/share/mediaflow"
	defaultLogDir                    = "~/.local/share/mediaflow/logs"
	defaultOutputDir                 = "~/.local/share/mediaflow/output"
	defaultTargetSegmentLength       = 200
	defaultMinSegmentLength          = 20
	defaultMinGapBetweenSegments     = 10
	defaultLabelTextProperty         = "CLASSIFICATION"
	defaultLabelNumericProperty      = "CONFIDENCE"
	defaultVideoEncoder              = "vp9"
	defaultFFprobeBinary             = "ffprobe"
	defaultProbeTimeout              = 60
	defaultFPS                       = 30
	defaultWorkflowPollInterval      = 5
	defaultWorkflowWorkers           = 2
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultWorkflowTaskTimeout       = 3600
	defaultBusBufferSize             = 256
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Segmenting: Segmenting{
			TargetLength: defaultTargetSegmentLength,
			MinLength:    defaultMinSegmentLength,
			MinGap:       defaultMinGapBetweenSegments,
		},
		Markup: Markup{
			LabelTrackIndex:      true,
			LabelTextProperty:    defaultLabelTextProperty,
			LabelNumericProperty: defaultLabelNumericProperty,
			MaxLabelLength:       markup.DefaultMaxLabelLength,
			VideoEncoder:         defaultVideoEncoder,
			ExemptTrackTypes:     slices.Clone(markup.DefaultExemptTrackTypes),
		},
		Media: Media{
			FFprobeBinary: defaultFFprobeBinary,
			ProbeTimeout:  defaultProbeTimeout,
			DefaultFPS:    defaultFPS,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultWorkflowPollInterval,
			Workers:           defaultWorkflowWorkers,
			HeartbeatInterval: defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:  defaultWorkflowHeartbeatTimeout,
			TaskTimeout:       defaultWorkflowTaskTimeout,
		},
		Bus: Bus{
			BufferSize: defaultBusBufferSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
