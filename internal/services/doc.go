// Package services defines shared utilities consumed by the sorting components
// and the daemon boundary.
//
// Key responsibilities:
//   - Context helpers that stamp pending-file IDs and request correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures keep their
//     classification (move failed, source missing, already undone, ...) all the
//     way to the CLI, where they are rendered as text.
package services
