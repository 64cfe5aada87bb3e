package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"autosort/internal/config"
	"autosort/internal/history"
	"autosort/internal/logging"
	"autosort/internal/mover"
	"autosort/internal/rules"
	"autosort/internal/services"
	"autosort/internal/staging"
	"autosort/internal/store"
	"autosort/internal/workflow"
)

// Daemon owns the state store, history, and workflow manager for one watch
// folder and enforces single-instance execution.
type Daemon struct {
	logger  *slog.Logger
	store   *store.Store
	history *history.Log
	mover   *mover.Mover
	wf      *workflow.Manager
	now     func() time.Time

	cfgMu   sync.RWMutex
	cfg     config.Config
	cfgPath string

	// rulesMu serializes read-modify-write rule edits
	rulesMu sync.Mutex
	rules   []rules.Rule

	lockPath string
	lock     *flock.Flock
	closed   bool

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Workflow     workflow.StatusSummary `json:"workflow"`
	DatabasePath string                 `json:"database_path"`
	LockPath     string                 `json:"lock_path"`
	ConfigPath   string                 `json:"config_path"`
	Rules        int                    `json:"rules"`
	History      int                    `json:"history"`
	PID          int                    `json:"pid"`
}

// Option customizes daemon construction.
type Option func(*options)

type options struct {
	workflow []workflow.ManagerOption
	now      func() time.Time
}

// WithWorkflowOptions forwards options to the workflow manager.
func WithWorkflowOptions(opts ...workflow.ManagerOption) Option {
	return func(o *options) {
		o.workflow = append(o.workflow, opts...)
	}
}

// WithClock replaces time.Now for history timestamps and stats.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New acquires the instance lock, seeds default rules on first use, loads
// history, and builds a stopped workflow manager. cfgPath is where SaveConfig
// writes; it may be empty when the configuration came from defaults only.
func New(ctx context.Context, cfg *config.Config, cfgPath string, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "acquire lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrAlreadyRunning, "daemon", "acquire lock", lockPath, nil)
	}

	d := &Daemon{
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		now:      o.now,
		cfg:      *cfg,
		cfgPath:  cfgPath,
		lockPath: lockPath,
		lock:     lock,
		shutdown: make(chan struct{}),
	}
	if err := d.init(ctx, logger, o.workflow); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return d, nil
}

func (d *Daemon) init(ctx context.Context, logger *slog.Logger, wfOpts []workflow.ManagerOption) error {
	seeded, err := d.store.EnsureDefaultRules(ctx, rules.DefaultRules())
	if err != nil {
		return err
	}
	if seeded {
		d.logger.Info("default rules installed", logging.String(logging.FieldEventType, "rules_seeded"))
	}
	list, err := d.store.ListRules(ctx)
	if err != nil {
		return err
	}
	d.rules = list

	hist, err := history.Open(ctx, d.store, d.cfg.Sorting.HistoryLimit, logger)
	if err != nil {
		return err
	}
	d.history = hist
	d.mover = mover.New(logger)
	d.wf = workflow.NewManager(&d.cfg, list, d.mover, moveRecorder{d: d}, logger, wfOpts...)
	return nil
}

// Start begins watching. Starting while already watching is a no-op.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.wf.Start(ctx); err != nil {
		return fmt.Errorf("start watching: %w", err)
	}
	return nil
}

// Stop stops watching. Pending files stay staged.
func (d *Daemon) Stop() {
	d.wf.Stop()
}

// Pause discards file events until Resume.
func (d *Daemon) Pause() {
	d.wf.Pause()
}

// Resume re-enables event handling.
func (d *Daemon) Resume(ctx context.Context) {
	d.wf.Resume(ctx)
}

// RequestShutdown asks the hosting process to exit.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdown) })
}

// ShutdownRequested is closed once RequestShutdown has been called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Close stops watching and releases the instance lock. The store is owned
// by the caller.
func (d *Daemon) Close() error {
	d.wf.Stop()
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale lock file may remain"),
		)
		return err
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.rulesMu.Lock()
	ruleCount := len(d.rules)
	d.rulesMu.Unlock()
	return Status{
		Workflow:     d.wf.Status(),
		DatabasePath: d.store.Path(),
		LockPath:     d.lockPath,
		ConfigPath:   d.ConfigPath(),
		Rules:        ruleCount,
		History:      d.history.Len(),
		PID:          os.Getpid(),
	}
}

// Pending lists staged files ordered by due time.
func (d *Daemon) Pending() []staging.PendingFile {
	return d.wf.Pending()
}

// CancelPending drops a staged file without moving it.
func (d *Daemon) CancelPending(id string) (staging.PendingFile, error) {
	return d.wf.Cancel(id)
}

// MoveNow moves a staged file immediately.
func (d *Daemon) MoveNow(ctx context.Context, id string) (mover.Outcome, error) {
	return d.wf.MoveNow(ctx, id)
}

// Rescan stages files already present in the watch folder.
func (d *Daemon) Rescan(ctx context.Context) ([]staging.PendingFile, error) {
	return d.wf.Rescan(ctx)
}

// moveRecorder appends a history record and bumps the all-time counter for
// every successful move.
type moveRecorder struct {
	d *Daemon
}

func (r moveRecorder) RecordMove(ctx context.Context, pf staging.PendingFile, outcome mover.Outcome) error {
	rec := history.Record{
		ID:           uuid.NewString(),
		OriginalPath: outcome.Source,
		NewPath:      outcome.FinalPath,
		RuleName:     pf.RuleName,
		Timestamp:    r.d.now(),
		FileSize:     pf.FileSize,
		CanUndo:      true,
	}
	if rec.OriginalPath == "" {
		rec.OriginalPath = pf.Path
	}
	histErr := r.d.history.Add(ctx, rec)
	_, countErr := r.d.store.IncrementMoved(ctx)
	return errors.Join(histErr, countErr)
}
