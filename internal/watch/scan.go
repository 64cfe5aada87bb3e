package watch

import (
	"os"
	"path/filepath"

	"autosort/internal/services"
)

// Entry is a regular file found by Scan.
type Entry struct {
	Path string
	Name string
	Size int64
}

// Scan lists the regular files directly inside dir in name order.
// Subdirectories and entries that disappear mid-scan are skipped.
func Scan(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrWatchSetup, "watch", "scan", dir, err)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Path: filepath.Join(dir, e.Name()),
			Name: e.Name(),
			Size: info.Size(),
		})
	}
	return out, nil
}
