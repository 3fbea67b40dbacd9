// Package cycles reads the CPU's cycle counter.
//
// On amd64 this is the time-stamp counter (RDTSC, fenced with LFENCE so
// earlier instructions retire first). On arm64 it is the virtual counter
// CNTVCT_EL0, which ticks at a fixed frequency rather than the core clock.
// Other architectures have no counter; Available reports false and Now
// returns 0.
package cycles

import "errors"

// ErrUnavailable is returned by callers that need a counter on an
// architecture without one.
var ErrUnavailable = errors.New("no hardware cycle counter on this architecture")

// Elapsed returns the cycles between two readings.
func Elapsed(start, end uint64) uint64 {
	return end - start
}

// Counter reads the hardware counter. The zero value is ready to use.
type Counter struct{}

// Now returns the current counter value.
func (Counter) Now() uint64 {
	return Now()
}
