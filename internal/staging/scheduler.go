package staging

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/mover"
	"autosort/internal/services"
)

// Mover relocates one file.
type Mover interface {
	Move(source, destRoot, folder string, policy config.ConflictResolution) mover.Outcome
}

// Recorder is told about every successful move.
type Recorder interface {
	RecordMove(ctx context.Context, pf PendingFile, outcome mover.Outcome) error
}

// Settings are read at the moment a file is moved, so configuration changes
// apply to files already pending.
type Settings struct {
	DestinationRoot string
	Policy          config.ConflictResolution
}

// SweepResult tallies one sweep.
type SweepResult struct {
	Moved    int
	Skipped  int
	Failed   int
	Vanished int
}

// Total is the number of entries the sweep removed from the pending table.
func (r SweepResult) Total() int {
	return r.Moved + r.Skipped + r.Failed + r.Vanished
}

// Scheduler moves pending files once they are due.
type Scheduler struct {
	pending  *Store
	mover    Mover
	recorder Recorder
	settings func() Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler wires a scheduler over pending.
func NewScheduler(pending *Store, mv Mover, recorder Recorder, settings func() Settings, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pending:  pending,
		mover:    mv,
		recorder: recorder,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		now:      time.Now,
	}
}

// SetClock replaces the time source used to decide what is due.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Sweep moves every due file. Entries are removed from the pending table
// before moving and are never retried; a file that vanished in the meantime is
// dropped silently.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	for _, pf := range s.pending.TakeDue(s.now()) {
		if ctx.Err() != nil {
			// put back what we have not started so a later sweep picks it up
			s.restage(pf)
			continue
		}
		if !sourceExists(pf.Path) {
			s.logger.Debug("staged file vanished before move",
				logging.String(logging.FieldPendingID, pf.ID),
				logging.String(logging.FieldPath, pf.Path),
			)
			result.Vanished++
			continue
		}
		outcome := s.execute(services.WithPendingID(ctx, pf.ID), pf)
		switch outcome.Status {
		case mover.StatusMoved:
			result.Moved++
		case mover.StatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	return result
}

// MoveNow moves a pending file immediately on the caller's goroutine. A
// conflict skip is reported through the outcome, not as an error.
func (s *Scheduler) MoveNow(ctx context.Context, id string) (mover.Outcome, error) {
	pf, ok := s.pending.Take(id)
	if !ok {
		return mover.Outcome{}, services.Wrap(services.ErrNotFound, "scheduler", "move now", "no pending file with id "+id, nil)
	}
	if !sourceExists(pf.Path) {
		err := services.Wrap(services.ErrSourceMissing, "scheduler", "move now", pf.Path, nil)
		return mover.Outcome{Status: mover.StatusFailed, Source: pf.Path, Err: err}, err
	}
	outcome := s.execute(services.WithPendingID(ctx, pf.ID), pf)
	if outcome.Status == mover.StatusFailed {
		return outcome, outcome.Err
	}
	return outcome, nil
}

func (s *Scheduler) execute(ctx context.Context, pf PendingFile) mover.Outcome {
	settings := s.settings()
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldPath, pf.Path),
		logging.String(logging.FieldRule, pf.RuleName),
	)

	outcome := s.mover.Move(pf.Path, settings.DestinationRoot, pf.DestinationFolder, settings.Policy)
	switch outcome.Status {
	case mover.StatusMoved:
		logger.Info("file moved",
			logging.String("destination", outcome.FinalPath),
			logging.String(logging.FieldEventType, "file_moved"),
		)
		if s.recorder != nil {
			if err := s.recorder.RecordMove(ctx, pf, outcome); err != nil {
				logging.WarnWithContext(logger, "move not recorded in history", "history_record_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the state database in state_dir"),
					logging.String(logging.FieldImpact, "this move cannot be undone from history"),
				)
			}
		}
	case mover.StatusSkipped:
		logger.Info("move skipped",
			logging.String("reason", errText(outcome.Err)),
			logging.String(logging.FieldEventType, "file_skipped"),
		)
	default:
		logging.ErrorWithContext(logger, "move failed", "file_move_failed",
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "check permissions and free space on the destination"),
		)
	}
	return outcome
}

func (s *Scheduler) restage(pf PendingFile) {
	s.pending.mu.Lock()
	defer s.pending.mu.Unlock()
	if _, taken := s.pending.byPath[pf.Path]; taken {
		return
	}
	s.pending.byID[pf.ID] = pf
	s.pending.byPath[pf.Path] = pf.ID
}

func sourceExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
