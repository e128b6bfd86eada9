package watchdog

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrAlreadyRunning signals that another live watchdog holds the PID file.
// The second instance must exit cleanly, not crash.
var ErrAlreadyRunning = fmt.Errorf("watchdog: another instance is already running")

// AcquirePIDFile claims single-instance ownership. A file left by a dead
// process is reclaimed. The returned release func removes the file.
func AcquirePIDFile(path string) (func(), error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("watchdog: pid file %s: %w", path, err)
		}

		data, rerr := os.ReadFile(path)
		if rerr == nil {
			if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && PIDAlive(pid) {
				return nil, ErrAlreadyRunning
			}
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("watchdog: remove stale pid file: %w", rmErr)
		}
	}
	return nil, fmt.Errorf("watchdog: could not acquire pid file %s", path)
}
