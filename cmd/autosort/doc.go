// Command autosort runs the download-folder sorting daemon and talks to it.
//
// `autosort run` hosts the daemon in the foreground. Every other command is a
// thin client that dials the daemon's Unix socket and renders the reply as a
// table or, with --json, as JSON.
package main
