package watchdog

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// PIDAlive reports whether the pid maps to a live process, using the
// conventional signal-0 probe.
func PIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Terminate stops a process gracefully: SIGTERM, wait up to grace for it to
// exit, then SIGKILL. A process that survives the kill is reported; the
// caller retries on its next cycle rather than looping here.
func Terminate(pid int, grace time.Duration) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("terminate pid %d: %w", pid, err)
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if !PIDAlive(pid) {
			return nil
		}
		return fmt.Errorf("terminate pid %d: sigterm: %w", pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !PIDAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := proc.Signal(syscall.SIGKILL); err != nil && PIDAlive(pid) {
		return fmt.Errorf("terminate pid %d: sigkill: %w", pid, err)
	}

	time.Sleep(100 * time.Millisecond)
	if PIDAlive(pid) {
		return fmt.Errorf("terminate pid %d: still alive after sigkill", pid)
	}
	return nil
}
