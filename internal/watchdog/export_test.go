package watchdog

import "time"

// Test hooks for a deterministic clock and a fake process table.

func (w *Watchdog) SetTimeNow(fn func() time.Time) { w.timeNow = fn }

func (w *Watchdog) SetTerminate(fn func(pid int, grace time.Duration) error) { w.terminate = fn }

func (w *Watchdog) SetPIDAlive(fn func(pid int) bool) { w.pidAlive = fn }

func (s *AlertState) SetTimeNow(fn func() time.Time) { s.timeNow = fn }
