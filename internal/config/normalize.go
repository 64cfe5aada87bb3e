package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSorting(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("AUTOSORT_WATCH_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.WatchDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("AUTOSORT_DESTINATION_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DestinationRoot = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		c.Paths.WatchDir = defaultWatchDir()
	}
	if strings.TrimSpace(c.Paths.DestinationRoot) == "" {
		c.Paths.DestinationRoot = c.Paths.WatchDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}

	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if c.Paths.DestinationRoot, err = expandPath(c.Paths.DestinationRoot); err != nil {
		return fmt.Errorf("paths.destination_root: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSorting() error {
	if strings.TrimSpace(string(c.Sorting.ConflictResolution)) == "" {
		c.Sorting.ConflictResolution = ConflictRename
	}
	policy, err := ParseConflictResolution(string(c.Sorting.ConflictResolution))
	if err != nil {
		return fmt.Errorf("sorting.conflict_resolution: %w", err)
	}
	c.Sorting.ConflictResolution = policy
	if c.Sorting.HistoryLimit == 0 {
		c.Sorting.HistoryLimit = defaultHistoryLimit
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SweepIntervalMillis <= 0 {
		c.Workflow.SweepIntervalMillis = defaultSweepIntervalMS
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
