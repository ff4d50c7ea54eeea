package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMarkup()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv("MEDIAFLOW_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.OutputDir = strings.TrimSpace(value)
		} else {
			c.Paths.OutputDir = defaultOutputDir
		}
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	c.Paths.PipelinesFile = strings.TrimSpace(c.Paths.PipelinesFile)
	if c.Paths.PipelinesFile != "" {
		if c.Paths.PipelinesFile, err = expandPath(c.Paths.PipelinesFile); err != nil {
			return fmt.Errorf("paths.pipelines_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeMarkup() {
	c.Markup.LabelTextProperty = strings.TrimSpace(c.Markup.LabelTextProperty)
	c.Markup.LabelNumericProperty = strings.TrimSpace(c.Markup.LabelNumericProperty)
	c.Markup.VideoEncoder = strings.ToLower(strings.TrimSpace(c.Markup.VideoEncoder))
	if c.Markup.VideoEncoder == "" {
		c.Markup.VideoEncoder = defaultVideoEncoder
	}
	types := c.Markup.ExemptTrackTypes[:0]
	for _, t := range c.Markup.ExemptTrackTypes {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}
	c.Markup.ExemptTrackTypes = types
}

func (c *Config) normalizeMedia() {
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		if value, ok := os.LookupEnv("MEDIAFLOW_FFPROBE"); ok && strings.TrimSpace(value) != "" {
			c.Media.FFprobeBinary = strings.TrimSpace(value)
		} else {
			c.Media.FFprobeBinary = defaultFFprobeBinary
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			level = strings.ToLower(strings.TrimSpace(level))
			if stage == "" || level == "" {
				continue
			}
			overrides[stage] = level
		}
		c.Logging.StageOverrides = overrides
	}
}
