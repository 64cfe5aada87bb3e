package workflow

import (
	"context"
	"time"

	"autosort/internal/logging"
	"autosort/internal/mover"
	"autosort/internal/services"
	"autosort/internal/staging"
)

// StatusSummary is a point-in-time view of the manager.
type StatusSummary struct {
	Running         bool      `json:"running"`
	Paused          bool      `json:"paused"`
	WatchDir        string    `json:"watch_dir"`
	DestinationRoot string    `json:"destination_root"`
	Pending         int       `json:"pending"`
	MovedThisRun    int       `json:"moved_this_run"`
	StartedAt       time.Time `json:"started_at,omitzero"`
	LastError       string    `json:"last_error,omitempty"`
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	cfg, _ := m.snapshot()
	m.mu.RLock()
	summary := StatusSummary{
		Running:         m.running,
		Paused:          m.running && m.paused,
		WatchDir:        cfg.Paths.WatchDir,
		DestinationRoot: cfg.Paths.DestinationRoot,
		MovedThisRun:    m.moved,
	}
	if m.running {
		summary.StartedAt = m.startedAt
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()
	summary.Pending = m.pending.Len()
	return summary
}

// Pending lists staged files ordered by due time.
func (m *Manager) Pending() []staging.PendingFile {
	return m.pending.List()
}

// Cancel drops a staged file without moving it.
func (m *Manager) Cancel(id string) (staging.PendingFile, error) {
	pf, ok := m.pending.Take(id)
	if !ok {
		return staging.PendingFile{}, services.Wrap(services.ErrNotFound, "workflow", "cancel", "no pending file with id "+id, nil)
	}
	m.logger.Info("staged file cancelled",
		logging.String(logging.FieldPendingID, pf.ID),
		logging.String(logging.FieldPath, pf.Path),
		logging.String(logging.FieldEventType, "file_cancelled"),
	)
	return pf, nil
}

// MoveNow moves a staged file immediately, ignoring its deadline. It works
// while paused.
func (m *Manager) MoveNow(ctx context.Context, id string) (mover.Outcome, error) {
	return m.scheduler.MoveNow(ctx, id)
}

// countingRecorder tallies moves for Status before delegating.
type countingRecorder struct {
	m    *Manager
	next staging.Recorder
}

func (c countingRecorder) RecordMove(ctx context.Context, pf staging.PendingFile, outcome mover.Outcome) error {
	c.m.mu.Lock()
	c.m.moved++
	c.m.mu.Unlock()
	if c.next == nil {
		return nil
	}
	return c.next.RecordMove(ctx, pf, outcome)
}
