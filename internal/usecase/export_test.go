package usecase

import "time"

// Test hooks for injecting a deterministic clock.

func (t *OptionLegTracker) SetTimeNow(fn func() time.Time) { t.timeNow = fn }

func (l *TradeLimiter) SetTimeNow(fn func() time.Time) { l.timeNow = fn }

func (r *Runtime) SetTimeNow(fn func() time.Time) { r.timeNow = fn }
