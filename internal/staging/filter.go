package staging

import (
	"path/filepath"
	"strings"
)

// partial-download suffixes written by browsers and download managers
var partialSuffixes = []string{".crdownload", ".part", ".tmp", ".download"}

// IsCandidate reports whether a file name is eligible for staging: not
// hidden and not an in-progress download.
func IsCandidate(name string) bool {
	name = filepath.Base(name)
	if name == "" || name == "." || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}
