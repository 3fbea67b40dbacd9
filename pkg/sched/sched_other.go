//go:build !linux && !windows && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package sched

// Elevate always fails with ErrUnsupported on this platform.
func Elevate() error {
	return ErrUnsupported
}
