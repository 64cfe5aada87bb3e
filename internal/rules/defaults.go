package rules

import "github.com/google/uuid"

// DefaultRules returns the built-in category rules with fresh identifiers.
func DefaultRules() []Rule {
	defaults := []struct {
		name     string
		folder   string
		priority int
		exts     []string
	}{
		{"Images", "Images", 100, []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico", "tiff", "raw", "heic"}},
		{"Documents", "Documents", 90, []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "rtf", "odt", "ods", "odp", "csv", "epub"}},
		{"Installers", "Installers", 80, []string{"exe", "msi", "dmg", "pkg", "deb", "rpm", "appimage", "snap"}},
		{"Archives", "Archives", 70, []string{"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "tgz"}},
		{"Audio", "Audio", 60, []string{"mp3", "wav", "flac", "aac", "ogg", "m4a", "wma", "opus"}},
		{"Video", "Video", 50, []string{"mp4", "mkv", "avi", "mov", "wmv", "webm", "flv", "m4v"}},
		{"Code", "Code", 40, []string{"js", "ts", "jsx", "tsx", "py", "rs", "go", "java", "cpp", "c", "h", "hpp", "cs", "rb", "php", "swift", "kt"}},
	}
	out := make([]Rule, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, Rule{
			ID:                uuid.NewString(),
			Name:              d.name,
			Enabled:           true,
			Priority:          d.priority,
			Conditions:        Conditions{Extension(d.exts)},
			DestinationFolder: d.folder,
			IsDefault:         true,
		})
	}
	return out
}
