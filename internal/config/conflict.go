package config

import (
	"fmt"
	"strings"
)

// ConflictResolution selects what the mover does when the destination file
// already exists.
type ConflictResolution string

const (
	// ConflictRename keeps both files by numbering the incoming one.
	ConflictRename ConflictResolution = "rename"
	// ConflictSkip leaves the source file where it is.
	ConflictSkip ConflictResolution = "skip"
	// ConflictOverwrite replaces the existing destination file.
	ConflictOverwrite ConflictResolution = "overwrite"
	// ConflictAsk is reserved for an interactive prompt. Until one exists it
	// behaves like ConflictRename.
	ConflictAsk ConflictResolution = "ask"
)

// ParseConflictResolution accepts the policy names case-insensitively.
func ParseConflictResolution(value string) (ConflictResolution, error) {
	switch ConflictResolution(strings.ToLower(strings.TrimSpace(value))) {
	case ConflictRename:
		return ConflictRename, nil
	case ConflictSkip:
		return ConflictSkip, nil
	case ConflictOverwrite:
		return ConflictOverwrite, nil
	case ConflictAsk:
		return ConflictAsk, nil
	}
	return "", fmt.Errorf("unknown conflict resolution %q (want rename, skip, overwrite, or ask)", value)
}

func (r ConflictResolution) String() string {
	return string(r)
}
