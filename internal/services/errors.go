package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration       = errors.New("configuration error")
	ErrWatchSetup          = errors.New("watch setup failed")
	ErrMoveFailed          = errors.New("move failed")
	ErrConflictSkipped     = errors.New("destination exists, skipped")
	ErrSourceMissing       = errors.New("source file no longer exists")
	ErrDestinationOccupied = errors.New("original location is occupied")
	ErrAlreadyUndone       = errors.New("move already undone")
	ErrRecordNotFound      = errors.New("history record not found")
	ErrNotFound            = errors.New("not found")
	ErrStore               = errors.New("state store error")
	ErrAlreadyRunning      = errors.New("another autosort daemon is already running")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker so callers can classify it with errors.Is. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStore
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short stable label for the first marker err carries, or
// "internal" when it carries none. Used for log fields and IPC replies.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrWatchSetup):
		return "watch_setup"
	case errors.Is(err, ErrConflictSkipped):
		return "conflict_skipped"
	case errors.Is(err, ErrSourceMissing):
		return "source_missing"
	case errors.Is(err, ErrDestinationOccupied):
		return "destination_occupied"
	case errors.Is(err, ErrAlreadyUndone):
		return "already_undone"
	case errors.Is(err, ErrRecordNotFound):
		return "record_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMoveFailed):
		return "move_failed"
	case errors.Is(err, ErrStore):
		return "store"
	case errors.Is(err, ErrAlreadyRunning):
		return "already_running"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "autosort failure"
	}
	return strings.Join(parts, ": ")
}
