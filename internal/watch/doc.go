// Package watch reports files appearing in the watched folder.
//
// Source is the subscription the workflow manager consumes; the fsnotify
// implementation watches a single directory non-recursively and translates
// its events into Event values. Scan lists the folder for the startup and
// manual rescans.
package watch
