// Package daemon coordinates the long-running autosort process.
//
// It wires configuration, the SQLite state store, the move history, and the
// workflow manager into a single lifecycle with flock-based locking to prevent
// multiple instances. Every boundary operation the IPC server and CLI expose
// is a Daemon method: lifecycle control, staging inspection, history and
// undo, rule editing, and configuration updates.
//
// Keep orchestration logic here: matching, staging, and moving live in their
// own packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
