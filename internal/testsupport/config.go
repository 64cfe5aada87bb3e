package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autosort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The watch folder and destination root exist; grace period is zero so staged
// files are due immediately.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WatchDir = filepath.Join(base, "watch")
	cfgVal.Paths.DestinationRoot = filepath.Join(base, "sorted")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Sorting.GracePeriodSeconds = 0
	cfgVal.Workflow.SweepIntervalMillis = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.WatchDir, cfgVal.Paths.DestinationRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithGracePeriod overrides the staging delay in seconds.
func WithGracePeriod(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.GracePeriodSeconds = seconds
	}
}

// WithConflictResolution overrides the conflict policy.
func WithConflictResolution(policy config.ConflictResolution) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.ConflictResolution = policy
	}
}

// WithHistoryLimit overrides the history bound.
func WithHistoryLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.HistoryLimit = limit
	}
}

// WithoutStartupScan disables the scan performed when watching starts.
func WithoutStartupScan() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.ScanOnStart = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
