package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/rules"
	"autosort/internal/staging"
	"autosort/internal/watch"
)

// Manager coordinates watching, staging, and moving for the watch folder.
type Manager struct {
	logger     *slog.Logger
	pending    *staging.Store
	scheduler  *staging.Scheduler
	openSource watch.Opener
	now        func() time.Time

	cfgMu sync.RWMutex
	cfg   config.Config
	rules []rules.Rule

	// lifecycle serializes Start/Stop so a restart never overlaps an
	// exiting generation of loops
	lifecycle sync.Mutex

	mu        sync.RWMutex
	running   bool
	paused    bool
	parentCtx context.Context
	cancel    context.CancelFunc
	source    watch.Source
	wg        sync.WaitGroup
	startedAt time.Time
	lastErr   error
	moved     int
	// held paths are never staged until they leave the watch folder
	held map[string]struct{}
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithSourceOpener replaces the fsnotify subscription (used in tests).
func WithSourceOpener(open watch.Opener) ManagerOption {
	return func(m *Manager) {
		m.openSource = open
	}
}

// WithClock replaces time.Now for staging timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager constructs a stopped manager.
func NewManager(cfg *config.Config, ruleSet []rules.Rule, mv staging.Mover, recorder staging.Recorder, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:     logging.NewComponentLogger(logger, "workflow"),
		pending:    staging.NewStore(),
		openSource: watch.OpenFSNotify,
		now:        time.Now,
		cfg:        *cfg,
		rules:      rules.CloneAll(ruleSet),
		held:       make(map[string]struct{}),
	}
	m.scheduler = staging.NewScheduler(m.pending, mv, countingRecorder{m: m, next: recorder}, m.settings, logger)
	for _, opt := range opts {
		opt(m)
	}
	m.scheduler.SetClock(m.now)
	return m
}

// UpdateConfig swaps in a new configuration snapshot. Pending files keep
// their deadlines; destination root and conflict policy changes apply to the
// next move. A changed watch folder restarts the subscription when running.
func (m *Manager) UpdateConfig(cfg config.Config) error {
	m.cfgMu.Lock()
	watchChanged := m.cfg.Paths.WatchDir != cfg.Paths.WatchDir
	m.cfg = cfg
	m.cfgMu.Unlock()

	m.mu.RLock()
	running := m.running
	parent := m.parentCtx
	m.mu.RUnlock()

	if !watchChanged || !running {
		return nil
	}
	m.logger.Info("watch folder changed; restarting watcher",
		logging.String("watch_dir", cfg.Paths.WatchDir),
		logging.String(logging.FieldEventType, "watcher_restart"),
	)
	m.Stop()
	return m.Start(parent)
}

// UpdateRules swaps in a new rule list for future matches.
func (m *Manager) UpdateRules(list []rules.Rule) {
	cloned := rules.CloneAll(list)
	m.cfgMu.Lock()
	m.rules = cloned
	m.cfgMu.Unlock()
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() config.Config {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg
}

func (m *Manager) snapshot() (config.Config, []rules.Rule) {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg, m.rules
}

func (m *Manager) settings() staging.Settings {
	cfg := m.Config()
	return staging.Settings{
		DestinationRoot: cfg.Paths.DestinationRoot,
		Policy:          cfg.Sorting.ConflictResolution,
	}
}

// Hold keeps path out of staging until a remove or rename event for it
// arrives. Used around an undo so the restored file is not sorted again.
// Anything already pending at path stays pending; see Unstage.
func (m *Manager) Hold(path string) {
	m.mu.Lock()
	m.held[filepath.Clean(path)] = struct{}{}
	m.mu.Unlock()
}

// Unstage drops the pending entry for path, if any.
func (m *Manager) Unstage(path string) {
	if pf, ok := m.pending.Forget(filepath.Clean(path)); ok {
		m.logger.Debug("held file unstaged", logging.String(logging.FieldPendingID, pf.ID))
	}
}

func (m *Manager) isHeld(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.held[filepath.Clean(path)]
	return ok
}

// Release undoes Hold.
func (m *Manager) Release(path string) {
	m.mu.Lock()
	delete(m.held, filepath.Clean(path))
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
