package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"mediaflow/internal/markup"
	"mediaflow/internal/segment"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	OutputDir     string `toml:"output_dir"`
	PipelinesFile string `toml:"pipelines_file"`
}

// Segmenting contains the segmentation defaults applied when an action does
// not override them.
type Segmenting struct {
	TargetLength int `toml:"target_length"`
	MinLength    int `toml:"min_length"`
	MinGap       int `toml:"min_gap"`
}

// Markup contains default label and render options for markup tasks.
type Markup struct {
	LabelsFromDetections bool     `toml:"labels_from_detections"`
	LabelTrackIndex      bool     `toml:"label_track_index"`
	LabelTextProperty    string   `toml:"label_text_property"`
	LabelNumericProperty string   `toml:"label_numeric_property"`
	Animate              bool     `toml:"animate"`
	MaxLabelLength       int      `toml:"max_label_length"`
	VideoEncoder         string   `toml:"video_encoder"`
	ExemptTrackTypes     []string `toml:"exempt_track_types"`
}

// Media contains media inspection configuration.
type Media struct {
	FFprobeBinary string `toml:"ffprobe_binary"`
	ProbeTimeout  int    `toml:"probe_timeout"`
	DefaultFPS    int    `toml:"default_fps"`
}

// Workflow contains configuration for daemon timing and concurrency.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	Workers           int `toml:"workers"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
	TaskTimeout       int `toml:"task_timeout"`
}

// Bus contains configuration for the in-process message bus.
type Bus struct {
	BufferSize int `toml:"buffer_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for mediaflow.
//
// Configuration is organized into logical sections:
//   - Paths: data, log and output directories plus the pipeline catalog
//   - Segmenting: default segment sizing for detection actions
//   - Markup: default label and encoder options for markup actions
//   - Media: ffprobe settings for media inspection
//   - Workflow: worker count, polling, heartbeat and task timeouts
//   - Bus: queue buffering for the in-process bus
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Segmenting Segmenting `toml:"segmenting"`
	Markup     Markup     `toml:"markup"`
	Media      Media      `toml:"media"`
	Workflow   Workflow   `toml:"workflow"`
	Bus        Bus        `toml:"bus"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediaflow/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediaflow.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the job store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "mediaflowd.lock")
}

// PIDPath returns the daemon process id file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "mediaflowd.pid")
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "mediaflow.sock")
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Media.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// SegmentSettings returns the segmentation defaults for detection actions.
func (c *Config) SegmentSettings() segment.Settings {
	return segment.Settings{
		Plan: segment.Plan{
			TargetLength: c.Segmenting.TargetLength,
			MinLength:    c.Segmenting.MinLength,
			MinGap:       c.Segmenting.MinGap,
		},
		FeedForward: segment.FeedForwardNone,
	}
}

// MarkupOptions returns the markup defaults for markup actions.
func (c *Config) MarkupOptions() markup.Options {
	return markup.Options{
		LabelsFromDetections: c.Markup.LabelsFromDetections,
		LabelTrackIndex:      c.Markup.LabelTrackIndex,
		LabelTextProperty:    c.Markup.LabelTextProperty,
		LabelNumericProperty: c.Markup.LabelNumericProperty,
		Animate:              c.Markup.Animate,
		MaxLabelLength:       c.Markup.MaxLabelLength,
		VideoEncoder:         c.Markup.VideoEncoder,
		ExemptTrackTypes:     slices.Clone(c.Markup.ExemptTrackTypes),
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
