package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultGracePeriodSeconds = 5
	defaultHistoryLimit       = 500
	defaultSweepIntervalMS    = 1000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	appDirName                = "autosort"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	stateDir := defaultStateDir()
	return Config{
		Paths: Paths{
			WatchDir:        defaultWatchDir(),
			DestinationRoot: defaultWatchDir(),
			StateDir:        stateDir,
			LogDir:          filepath.Join(stateDir, "logs"),
		},
		Sorting: Sorting{
			GracePeriodSeconds: defaultGracePeriodSeconds,
			ConflictResolution: ConflictRename,
			HistoryLimit:       defaultHistoryLimit,
		},
		Workflow: Workflow{
			SweepIntervalMillis: defaultSweepIntervalMS,
			ScanOnStart:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func defaultWatchDir() string {
	if dir := xdg.UserDirs.Download; dir != "" {
		return dir
	}
	return "~/Downloads"
}

func defaultStateDir() string {
	if xdg.DataHome != "" {
		return filepath.Join(xdg.DataHome, appDirName)
	}
	return "~/.local/share/" + appDirName
}

func defaultConfigPath() string {
	if xdg.ConfigHome != "" {
		return filepath.Join(xdg.ConfigHome, appDirName, "config.toml")
	}
	return "~/.config/" + appDirName + "/config.toml"
}
