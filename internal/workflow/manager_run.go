package workflow

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"autosort/internal/logging"
	"autosort/internal/rules"
	"autosort/internal/staging"
	"autosort/internal/watch"
)

// Start validates the watch folder, subscribes to it, and launches the event
// and sweep loops. Starting a running manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	cfg, _ := m.snapshot()
	if err := watch.ValidateDir(cfg.Paths.WatchDir); err != nil {
		m.setLastError(err)
		return err
	}
	source, err := m.openSource(cfg.Paths.WatchDir)
	if err != nil {
		m.setLastError(err)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.running = true
	m.paused = false
	m.parentCtx = ctx
	m.cancel = cancel
	m.source = source
	m.startedAt = m.now()
	m.lastErr = nil
	m.moved = 0
	m.wg.Add(2)
	m.mu.Unlock()

	go m.eventLoop(runCtx, source)
	go m.sweepLoop(runCtx)

	m.logger.Info("watching started",
		logging.String("watch_dir", cfg.Paths.WatchDir),
		logging.String("destination_root", cfg.Paths.DestinationRoot),
		logging.String(logging.FieldEventType, "watcher_started"),
	)

	if cfg.Workflow.ScanOnStart {
		m.scanAndLog(runCtx, "start")
	}
	return nil
}

// Stop cancels both loops, closes the subscription, and waits for the loops
// to exit. Pending files are kept. Stopping a stopped manager is a no-op.
func (m *Manager) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	source := m.source
	m.running = false
	m.paused = false
	m.cancel = nil
	m.source = nil
	m.mu.Unlock()

	cancel()
	if err := source.Close(); err != nil {
		m.logger.Debug("closing watch source failed", logging.Error(err))
	}
	m.wg.Wait()
	m.logger.Info("watching stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
}

// Pause discards incoming events and suspends sweeps until Resume.
func (m *Manager) Pause() {
	m.mu.Lock()
	changed := m.running && !m.paused
	if changed {
		m.paused = true
	}
	m.mu.Unlock()
	if changed {
		m.logger.Info("watching paused", logging.String(logging.FieldEventType, "watcher_paused"))
	}
}

// Resume re-enables event handling and sweeps, rescanning the folder first
// when workflow.scan_on_resume is set.
func (m *Manager) Resume(ctx context.Context) {
	m.mu.Lock()
	changed := m.running && m.paused
	if changed {
		m.paused = false
	}
	m.mu.Unlock()
	if !changed {
		return
	}
	m.logger.Info("watching resumed", logging.String(logging.FieldEventType, "watcher_resumed"))
	if cfg, _ := m.snapshot(); cfg.Workflow.ScanOnResume {
		m.scanAndLog(ctx, "resume")
	}
}

// IsPaused reports whether the manager is running but paused.
func (m *Manager) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running && m.paused
}

func (m *Manager) eventLoop(ctx context.Context, source watch.Source) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-source.Events():
			if !ok {
				return
			}
			m.handleEvent(ctx, ev)
		case err, ok := <-source.Errors():
			if !ok {
				return
			}
			m.setLastError(err)
			logging.WarnWithContext(m.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'autosort scan' to pick up anything missed"),
				logging.String(logging.FieldImpact, "some new files may not have been noticed"),
			)
		}
	}
}

func (m *Manager) sweepLoop(ctx context.Context) {
	defer m.wg.Done()
	cfg, _ := m.snapshot()
	interval := cfg.SweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if m.IsPaused() {
			continue
		}
		m.Sweep(ctx)

		if cfg, _ := m.snapshot(); cfg.SweepInterval() != interval && cfg.SweepInterval() > 0 {
			interval = cfg.SweepInterval()
			ticker.Reset(interval)
		}
	}
}

// Sweep moves every due pending file now.
func (m *Manager) Sweep(ctx context.Context) staging.SweepResult {
	result := m.scheduler.Sweep(ctx)
	if result.Total() > 0 {
		m.logger.Debug("sweep finished",
			logging.Int("moved", result.Moved),
			logging.Int("skipped", result.Skipped),
			logging.Int("failed", result.Failed),
			logging.Int("vanished", result.Vanished),
		)
	}
	return result
}

func (m *Manager) handleEvent(ctx context.Context, ev watch.Event) {
	if m.IsPaused() {
		m.logger.Debug("event discarded while paused", logging.String(logging.FieldPath, ev.Path))
		return
	}
	if ev.Op.Has(watch.OpRemove) || ev.Op.Has(watch.OpRename) {
		m.Release(ev.Path)
		if pf, ok := m.pending.Forget(ev.Path); ok {
			m.logger.Info("staged file disappeared; unstaged",
				logging.String(logging.FieldPendingID, pf.ID),
				logging.String(logging.FieldPath, pf.Path),
				logging.String(logging.FieldEventType, "file_unstaged"),
			)
		}
		return
	}
	if ev.Op.Has(watch.OpCreate) || ev.Op.Has(watch.OpWrite) {
		m.consider(ctx, ev.Path)
	}
}

// consider stages path if it is an eligible regular file matched by a rule.
func (m *Manager) consider(_ context.Context, path string) (staging.PendingFile, bool) {
	if !staging.IsCandidate(path) || m.pending.Contains(path) || m.isHeld(path) {
		return staging.PendingFile{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return staging.PendingFile{}, false
	}

	cfg, ruleSet := m.snapshot()
	rule, ok := rules.MatchPath(path, info.Size(), ruleSet)
	if !ok {
		m.logger.Debug("no rule matched", logging.String(logging.FieldPath, path))
		return staging.PendingFile{}, false
	}

	pf, added := m.pending.Stage(path, rule, info.Size(), m.now(), cfg.GracePeriod())
	if added {
		m.logger.Info("file staged",
			logging.String(logging.FieldPendingID, pf.ID),
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldRule, rule.Name),
			logging.String("destination", filepath.Join(rule.DestinationFolder, pf.FileName)),
			logging.Duration("grace", cfg.GracePeriod()),
			logging.String(logging.FieldEventType, "file_staged"),
		)
	}
	return pf, added
}

// Rescan stages every eligible file already sitting in the watch folder and
// returns the newly staged entries. It works whether or not watching is
// running; when stopped, staged files wait for the next start.
func (m *Manager) Rescan(ctx context.Context) ([]staging.PendingFile, error) {
	cfg, _ := m.snapshot()
	entries, err := watch.Scan(cfg.Paths.WatchDir)
	if err != nil {
		return nil, err
	}
	var staged []staging.PendingFile
	for _, e := range entries {
		if ctx.Err() != nil {
			return staged, ctx.Err()
		}
		if pf, added := m.consider(ctx, e.Path); added {
			staged = append(staged, pf)
		}
	}
	return staged, nil
}

func (m *Manager) scanAndLog(ctx context.Context, trigger string) {
	staged, err := m.Rescan(ctx)
	if err != nil {
		m.setLastError(err)
		logging.WarnWithContext(m.logger, "folder scan failed", "scan_failed",
			logging.String("trigger", trigger),
			logging.Error(err),
			logging.String(logging.FieldImpact, "existing files were not staged"),
		)
		return
	}
	m.logger.Info("folder scanned",
		logging.String("trigger", trigger),
		logging.Int("staged", len(staged)),
		logging.String(logging.FieldEventType, "scan_completed"),
	)
}
