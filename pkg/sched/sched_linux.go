package sched

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
)

// fifoMaxPriority is sched_get_priority_max(SCHED_FIFO) on Linux.
const fifoMaxPriority = 99

// Elevate sets the nice value of the calling thread to -20 and switches it to
// the SCHED_FIFO real-time policy at maximum priority. Other threads of the
// process keep their policy. Both steps usually need root or CAP_SYS_NICE;
// each failure is collected and the other step still runs.
func Elevate() error {
	var result *multierror.Error

	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		result = multierror.Append(result, fmt.Errorf("setpriority: %w", err))
	}

	attr := unix.SchedAttr{
		Policy:   unix.SCHED_FIFO,
		Priority: fifoMaxPriority,
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		result = multierror.Append(result, fmt.Errorf("sched_setattr SCHED_FIFO: %w", err))
	}

	return result.ErrorOrNil()
}
