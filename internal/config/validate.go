package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSorting(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DestinationRoot) == "" {
		return errors.New("paths.destination_root must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if !filepath.IsAbs(c.Paths.WatchDir) {
		return fmt.Errorf("paths.watch_dir must be absolute, got %q", c.Paths.WatchDir)
	}
	if !filepath.IsAbs(c.Paths.DestinationRoot) {
		return fmt.Errorf("paths.destination_root must be absolute, got %q", c.Paths.DestinationRoot)
	}
	return nil
}

func (c *Config) validateSorting() error {
	if c.Sorting.GracePeriodSeconds < 0 {
		return errors.New("sorting.grace_period_seconds must be zero or positive")
	}
	if c.Sorting.HistoryLimit < 1 {
		return errors.New("sorting.history_limit must be at least 1")
	}
	if _, err := ParseConflictResolution(string(c.Sorting.ConflictResolution)); err != nil {
		return fmt.Errorf("sorting.conflict_resolution: %w", err)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.SweepIntervalMillis <= 0 {
		return errors.New("workflow.sweep_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("logging.level: unsupported level %q", c.Logging.Level)
}
