// Package daemonctl launches, starts, and shuts down the background daemon
// from the CLI side of the socket.
package daemonctl
