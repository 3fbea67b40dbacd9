package sched

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Elevate moves the process into HIGH_PRIORITY_CLASS.
func Elevate() error {
	if err := windows.SetPriorityClass(windows.CurrentProcess(), windows.HIGH_PRIORITY_CLASS); err != nil {
		return fmt.Errorf("SetPriorityClass: %w", err)
	}
	return nil
}
