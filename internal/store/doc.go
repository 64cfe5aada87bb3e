// Package store persists autosort state in SQLite: the rule list, the bounded
// move history, and the all-time moved-file counter.
//
// The database lives in the configured state directory. Writers retry briefly
// on SQLITE_BUSY so the CLI and the daemon can share the file, and every
// multi-row replacement runs inside a single transaction so a crash leaves
// either the old set or the new one.
package store
