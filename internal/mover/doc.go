// Package mover relocates a single file into its destination folder and, for
// undo, puts it back.
//
// Moves prefer an atomic rename and fall back to a verified copy followed by a
// delete when rename fails (typically across filesystems). Name conflicts are
// settled by the configured policy: rename to "stem (n).ext", skip, or
// overwrite. The result of every move is an Outcome rather than a bare error
// so callers can tell a skip from a failure and notice a leftover source.
package mover
