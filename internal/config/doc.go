// Package config loads, normalizes, and validates autosort configuration data.
//
// It supplies defaults rooted in the XDG base directories, expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// overrides such as AUTOSORT_WATCH_DIR. The Config type holds every scalar knob
// the daemon and CLI need: where to watch, where to sort to, how long to wait
// before moving, and how conflicts are resolved. Sorting rules are not kept
// here; they live in the state database next to the move history.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
