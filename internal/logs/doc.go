// Package logs reads the daemon's log files for the CLI.
//
// It locates the newest daily log in the log directory, returns the last N
// lines with bounded memory, and follows a file from a byte offset until
// the caller's context ends. Follow copes with truncation by restarting
// from the beginning of the file.
package logs
