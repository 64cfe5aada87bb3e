package daemon

import (
	"context"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/services"
)

// Config returns the configuration currently in effect.
func (d *Daemon) Config() config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// ConfigPath returns where SaveConfig writes.
func (d *Daemon) ConfigPath() string {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfgPath
}

// SaveConfig validates cfg, writes it to the config file, and applies it to
// the running manager and history. State and log directories only change on
// restart, since the database, socket, and lock already live there.
func (d *Daemon) SaveConfig(ctx context.Context, cfg config.Config) (config.Config, error) {
	if err := cfg.Normalize(); err != nil {
		return config.Config{}, services.Wrap(services.ErrConfiguration, "config", "save", "normalize", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, services.Wrap(services.ErrConfiguration, "config", "save", "validate", err)
	}

	d.cfgMu.Lock()
	path := d.cfgPath
	if path == "" {
		def, err := config.DefaultConfigPath()
		if err != nil {
			d.cfgMu.Unlock()
			return config.Config{}, services.Wrap(services.ErrConfiguration, "config", "save", "resolve path", err)
		}
		path = def
	}
	if err := config.Save(path, &cfg); err != nil {
		d.cfgMu.Unlock()
		return config.Config{}, services.Wrap(services.ErrConfiguration, "config", "save", path, err)
	}
	live := cfg
	if live.Paths.StateDir != d.cfg.Paths.StateDir || live.Paths.LogDir != d.cfg.Paths.LogDir {
		logging.WarnWithContext(d.logger, "state or log directory change saved", "config_restart_required",
			logging.String("state_dir", live.Paths.StateDir),
			logging.String(logging.FieldImpact, "the new directories are used after the daemon restarts"),
		)
		live.Paths.StateDir = d.cfg.Paths.StateDir
		live.Paths.LogDir = d.cfg.Paths.LogDir
	}
	d.cfg = live
	d.cfgPath = path
	d.cfgMu.Unlock()

	if err := d.history.SetLimit(ctx, live.Sorting.HistoryLimit); err != nil {
		return live, err
	}
	if err := d.wf.UpdateConfig(live); err != nil {
		return live, err
	}
	d.logger.Info("configuration saved",
		logging.String("config_path", path),
		logging.String(logging.FieldEventType, "config_saved"),
	)
	return live, nil
}
