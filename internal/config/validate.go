package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSegmenting(); err != nil {
		return err
	}
	if err := c.validateMarkup(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateSegmenting() error {
	if err := ensurePositiveMap(map[string]int{
		"segmenting.target_length": c.Segmenting.TargetLength,
		"segmenting.min_length":    c.Segmenting.MinLength,
	}); err != nil {
		return err
	}
	if c.Segmenting.MinGap < 0 {
		return errors.New("segmenting.min_gap must be zero or positive")
	}
	if c.Segmenting.MinLength > c.Segmenting.TargetLength {
		return errors.New("segmenting.min_length must not exceed segmenting.target_length")
	}
	return nil
}

func (c *Config) validateMarkup() error {
	if c.Markup.MaxLabelLength <= 0 {
		return errors.New("markup.max_label_length must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.workers":             c.Workflow.Workers,
		"workflow.task_timeout":        c.Workflow.TaskTimeout,
		"media.probe_timeout":          c.Media.ProbeTimeout,
		"media.default_fps":            c.Media.DefaultFPS,
		"bus.buffer_size":              c.Bus.BufferSize,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	levels := map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "warning": {}, "error": {}}
	if _, ok := levels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if _, ok := levels[level]; !ok {
			return fmt.Errorf("logging.stage_overrides.%s has unknown level %q", stage, level)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
