// Package sched asks the operating system for more CPU time before a
// benchmark. Every request is best-effort: callers log a returned error and
// carry on.
//
// On Linux the request changes only the calling thread, so callers pin the
// goroutine with runtime.LockOSThread before calling Elevate and keep it
// pinned while the measured code runs.
package sched

import "errors"

// ErrUnsupported is returned on platforms with no priority controls.
var ErrUnsupported = errors.New("priority elevation not supported on this platform")
