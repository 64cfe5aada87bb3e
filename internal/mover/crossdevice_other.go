//go:build !unix

package mover

func isCrossDevice(error) bool {
	return false
}
