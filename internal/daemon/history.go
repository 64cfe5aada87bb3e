package daemon

import (
	"context"

	"autosort/internal/history"
	"autosort/internal/logging"
)

// HistoryStats adds the all-time counter to the retained-window stats.
type HistoryStats struct {
	history.Stats
	Total int64 `json:"total"`
}

// History returns every retained record, newest first.
func (d *Daemon) History() []history.Record {
	return d.history.All()
}

// RecentHistory returns at most n records, newest first.
func (d *Daemon) RecentHistory(n int) []history.Record {
	return d.history.Recent(n)
}

// HistoryStats reports today, this-week, and all-time move counts.
func (d *Daemon) HistoryStats(ctx context.Context) (HistoryStats, error) {
	total, err := d.store.TotalMoved(ctx)
	if err != nil {
		return HistoryStats{}, err
	}
	return HistoryStats{Stats: d.history.Stats(d.now()), Total: total}, nil
}

// Undo moves a recorded file back to its original path. The restored path is
// held out of staging so the watcher does not sort it again.
func (d *Daemon) Undo(ctx context.Context, id string) (history.Record, error) {
	rec, err := d.history.Undo(ctx, id, holdingRestorer{d: d})
	if err != nil {
		return rec, err
	}
	d.logger.Info("move undone",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldPath, rec.OriginalPath),
		logging.String(logging.FieldEventType, "move_undone"),
	)
	return rec, nil
}

// ClearHistory drops every retained record and reports how many there were.
// The all-time counter is kept.
func (d *Daemon) ClearHistory(ctx context.Context) (int, error) {
	n := d.history.Len()
	if err := d.history.Clear(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// holdingRestorer holds the original path while restoring so the create
// event the restore produces is ignored. A failed restore leaves the pending
// table as it was.
type holdingRestorer struct {
	d *Daemon
}

func (h holdingRestorer) Restore(currentPath, originalPath string) error {
	h.d.wf.Hold(originalPath)
	if err := h.d.mover.Restore(currentPath, originalPath); err != nil {
		h.d.wf.Release(originalPath)
		return err
	}
	h.d.wf.Unstage(originalPath)
	return nil
}
