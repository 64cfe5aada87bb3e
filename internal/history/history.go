package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"autosort/internal/logging"
	"autosort/internal/services"
)

// Record describes one completed move.
type Record struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	RuleName     string    `json:"rule_name"`
	Timestamp    time.Time `json:"timestamp"`
	FileSize     int64     `json:"file_size"`
	CanUndo      bool      `json:"can_undo"`
}

// Persister stores the full record set. SaveHistory must replace whatever
// was stored before.
type Persister interface {
	LoadHistory(ctx context.Context) ([]Record, error)
	SaveHistory(ctx context.Context, records []Record) error
}

// Restorer moves a file back to where it came from.
type Restorer interface {
	Restore(currentPath, originalPath string) error
}

// Log is the in-memory history backed by a Persister.
type Log struct {
	mu      sync.RWMutex
	records []Record
	limit   int
	store   Persister
	logger  *slog.Logger
}

// Open loads persisted records and trims them to limit.
func Open(ctx context.Context, store Persister, limit int, logger *slog.Logger) (*Log, error) {
	if limit < 1 {
		limit = 1
	}
	records, err := store.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	l := &Log{
		store:  store,
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "history"),
	}
	if len(records) > limit {
		records = records[:limit]
		if err := store.SaveHistory(ctx, records); err != nil {
			return nil, err
		}
	}
	l.records = records
	return l, nil
}

// Add records a move at the front, evicting the oldest entries beyond the limit.
func (l *Log) Add(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]Record, 0, min(len(l.records)+1, l.limit))
	next = append(next, rec)
	next = append(next, l.records...)
	if len(next) > l.limit {
		next = next[:l.limit]
	}
	if err := l.store.SaveHistory(ctx, next); err != nil {
		return err
	}
	l.records = next
	return nil
}

// All returns every retained record, newest first.
func (l *Log) All() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Recent returns at most n records, newest first. n <= 0 returns all.
func (l *Log) Recent(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	return slices.Clone(l.records[:n])
}

// Find looks up a record by id.
func (l *Log) Find(id string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.records[i], true
	}
	return Record{}, false
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Limit returns the retention bound.
func (l *Log) Limit() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limit
}

// Undo moves the recorded file back to its original path and marks the record
// as undone. Failures leave the record untouched.
func (l *Log) Undo(ctx context.Context, id string, restorer Restorer) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return Record{}, services.Wrap(services.ErrRecordNotFound, "history", "undo", id, nil)
	}
	rec := l.records[i]
	if !rec.CanUndo {
		return rec, services.Wrap(services.ErrAlreadyUndone, "history", "undo", id, nil)
	}
	if err := restorer.Restore(rec.NewPath, rec.OriginalPath); err != nil {
		return rec, err
	}

	rec.CanUndo = false
	next := slices.Clone(l.records)
	next[i] = rec
	if err := l.store.SaveHistory(ctx, next); err != nil {
		// the file is already back in place; keep memory truthful even though
		// the flag did not reach disk
		l.records = next
		logging.WarnWithContext(l.logger, "undo applied but not persisted", "history_persist_failed",
			logging.String("record_id", id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "record may show as undoable after restart"),
		)
		return rec, err
	}
	l.records = next
	l.logger.Info("move undone",
		logging.String("record_id", id),
		logging.String(logging.FieldPath, rec.OriginalPath),
		logging.String(logging.FieldEventType, "move_undone"),
	)
	return rec, nil
}

// Clear drops every record.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.SaveHistory(ctx, nil); err != nil {
		return err
	}
	l.records = nil
	return nil
}

// SetLimit changes the retention bound, evicting the oldest records when it
// shrinks.
func (l *Log) SetLimit(ctx context.Context, limit int) error {
	if limit < 1 {
		limit = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) > limit {
		next := slices.Clone(l.records[:limit])
		if err := l.store.SaveHistory(ctx, next); err != nil {
			return err
		}
		l.records = next
	}
	l.limit = limit
	return nil
}

func (l *Log) indexOf(id string) int {
	return slices.IndexFunc(l.records, func(r Record) bool { return r.ID == id })
}
