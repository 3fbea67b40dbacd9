package bench

import (
	"errors"
	"fmt"
)

// Mode selects how samples become output rows.
type Mode string

const (
	// ModeAggregate writes one trimmed mean per algorithm and operation.
	ModeAggregate Mode = "aggregate"
	// ModeStream writes every successful sample unfiltered.
	ModeStream Mode = "stream"
)

// DefaultTrimPercent is the share of slowest samples dropped before averaging.
const DefaultTrimPercent = 5

// ErrInvalidConfig is returned for a RunConfig that cannot be run.
var ErrInvalidConfig = errors.New("invalid configuration")

// RunConfig is fixed for the whole run.
type RunConfig struct {
	Iterations  int
	TrimPercent int
	Algorithms  []string
	Mode        Mode
	// VerifySharedSecret compares the encapsulated and decapsulated secrets
	// after each successful round and reports mismatches.
	VerifySharedSecret bool
}

// Validate checks that c can be run.
func (c RunConfig) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.TrimPercent < 0 || c.TrimPercent >= 100 {
		return fmt.Errorf("%w: trim percent must be in [0,100), got %d", ErrInvalidConfig, c.TrimPercent)
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("%w: no algorithms configured", ErrInvalidConfig)
	}
	switch c.Mode {
	case ModeAggregate, ModeStream:
	default:
		return fmt.Errorf("%w: unknown mode %q (want %q or %q)", ErrInvalidConfig, c.Mode, ModeAggregate, ModeStream)
	}
	return nil
}
