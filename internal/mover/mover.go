package mover

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"autosort/internal/config"
	"autosort/internal/fileutil"
	"autosort/internal/logging"
	"autosort/internal/services"
)

// Status classifies a move attempt.
type Status string

const (
	StatusMoved   Status = "moved"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome describes what a move attempt did. FinalPath is set when Status is
// StatusMoved. SourceLeftover reports a move whose copy succeeded but whose
// source could not be deleted afterwards; the move still counts as done.
type Outcome struct {
	Status         Status `json:"status"`
	Source         string `json:"source"`
	FinalPath      string `json:"final_path,omitempty"`
	SourceLeftover bool   `json:"source_leftover,omitempty"`
	Err            error  `json:"-"`
}

// Moved reports whether the file now lives at FinalPath.
func (o Outcome) Moved() bool { return o.Status == StatusMoved }

// Mover performs file relocation. The zero value is not usable; call New.
type Mover struct {
	logger *slog.Logger
	rename func(oldPath, newPath string) error
	copy   func(src, dst string) (int64, error)
	remove func(path string) error
	newID  func() string
}

// New constructs a Mover operating on the real filesystem.
func New(logger *slog.Logger) *Mover {
	return &Mover{
		logger: logging.NewComponentLogger(logger, "mover"),
		rename: os.Rename,
		copy:   fileutil.CopyVerified,
		remove: os.Remove,
		newID:  uuid.NewString,
	}
}

// Move relocates source into destRoot/folder, keeping its base name unless the
// conflict policy renames it.
func (m *Mover) Move(source, destRoot, folder string, policy config.ConflictResolution) Outcome {
	outcome := Outcome{Source: source}
	logger := m.logger.With(logging.String(logging.FieldPath, source))

	destDir := filepath.Join(destRoot, folder)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = services.Wrap(services.ErrMoveFailed, "mover", "create destination", destDir, err)
		return outcome
	}

	target := filepath.Join(destDir, filepath.Base(source))
	if filepath.Clean(target) == filepath.Clean(source) {
		outcome.Status = StatusSkipped
		outcome.Err = services.Wrap(services.ErrConflictSkipped, "mover", "resolve", "file is already in its destination", nil)
		return outcome
	}

	if fileutil.Exists(target) {
		switch policy {
		case config.ConflictSkip:
			logger.Info("destination exists; skipping",
				logging.String("destination", target),
				logging.String(logging.FieldEventType, "move_conflict_skipped"),
			)
			outcome.Status = StatusSkipped
			outcome.Err = services.Wrap(services.ErrConflictSkipped, "mover", "resolve", target, nil)
			return outcome
		case config.ConflictOverwrite:
			logger.Info("destination exists; overwriting",
				logging.String("destination", target),
				logging.String(logging.FieldEventType, "move_conflict_overwrite"),
			)
		case config.ConflictAsk:
			logger.Info("interactive conflict prompt unavailable; renaming instead",
				logging.String("destination", target),
				logging.String(logging.FieldEventType, "move_conflict_ask_fallback"),
			)
			target = m.uniquePath(target)
		default:
			target = m.uniquePath(target)
		}
	}

	leftover, err := m.transfer(source, target, logger)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Status = StatusMoved
	outcome.FinalPath = target
	outcome.SourceLeftover = leftover
	return outcome
}

// Restore moves a file from currentPath back to originalPath. It never
// overwrites: an occupied original location is an error.
func (m *Mover) Restore(currentPath, originalPath string) error {
	if _, err := os.Stat(currentPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrSourceMissing, "mover", "restore", currentPath, nil)
		}
		return services.Wrap(services.ErrMoveFailed, "mover", "restore", "stat moved file", err)
	}
	if fileutil.Exists(originalPath) {
		return services.Wrap(services.ErrDestinationOccupied, "mover", "restore", originalPath, nil)
	}
	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return services.Wrap(services.ErrMoveFailed, "mover", "restore", "create original directory", err)
	}
	logger := m.logger.With(logging.String(logging.FieldPath, currentPath))
	if _, err := m.transfer(currentPath, originalPath, logger); err != nil {
		return err
	}
	return nil
}

// transfer renames source to target, falling back to copy-then-delete. The
// returned bool is true when the copy landed but the source could not be
// removed.
func (m *Mover) transfer(source, target string, logger *slog.Logger) (bool, error) {
	renameErr := m.rename(source, target)
	if renameErr == nil {
		return false, nil
	}

	reason := "rename failed"
	if isCrossDevice(renameErr) {
		reason = "cross-device rename"
	}
	logger.Debug("falling back to copy",
		logging.String("destination", target),
		logging.String("reason", reason),
		logging.Error(renameErr),
	)

	if _, copyErr := m.copy(source, target); copyErr != nil {
		return false, services.Wrap(services.ErrMoveFailed, "mover", "transfer",
			fmt.Sprintf("rename: %v", renameErr), copyErr)
	}

	if err := m.remove(source); err != nil {
		logging.WarnWithContext(logger, "copied file but could not delete source", "move_source_leftover",
			logging.String("destination", target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the watch folder"),
			logging.String(logging.FieldImpact, "file now exists in both locations"),
		)
		return true, nil
	}
	return false, nil
}
