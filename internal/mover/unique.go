package mover

import (
	"fmt"
	"path/filepath"
	"strings"

	"autosort/internal/fileutil"
)

const maxRenameAttempts = 1000

// uniquePath returns path if free, otherwise "stem (n).ext" for the first free
// n in 1..maxRenameAttempts, otherwise "<uuid>_<name>" in the same directory.
func (m *Mover) uniquePath(path string) string {
	return uniquePath(path, fileutil.Exists, m.newID)
}

func uniquePath(path string, exists func(string) bool, newID func() string) string {
	if !exists(path) {
		return path
	}
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}

	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
	return filepath.Join(dir, newID()+"_"+name)
}
