// Package watchdog implements the out-of-process supervisor: it reconciles
// the shared strategy-configuration store against the live process table,
// enforces schedule windows, and force-stops strategies whose logs show a
// risk breach. It never starts a process; launching is deployment tooling's
// job.
package watchdog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

type Options struct {
	Store     *ConfigStore
	Alerts    *AlertState
	LogDir    string
	Notifier  domain.Notifier
	Logger    *zap.Logger
	KillGrace time.Duration
}

type Watchdog struct {
	store     *ConfigStore
	alerts    *AlertState
	logDir    string
	notifier  domain.Notifier
	logger    *zap.Logger
	killGrace time.Duration

	timeNow   func() time.Time
	terminate func(pid int, grace time.Duration) error
	pidAlive  func(pid int) bool
}

func New(opts Options) (*Watchdog, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("watchdog: config store is required")
	}
	if opts.Alerts == nil {
		return nil, fmt.Errorf("watchdog: alert state is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = 5 * time.Second
	}
	return &Watchdog{
		store:     opts.Store,
		alerts:    opts.Alerts,
		logDir:    opts.LogDir,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		killGrace: opts.KillGrace,
		timeNow:   time.Now,
		terminate: Terminate,
		pidAlive:  PIDAlive,
	}, nil
}

// Run reconciles on a fixed interval until ctx is cancelled. A failed cycle
// is logged and the next tick proceeds.
func (w *Watchdog) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	w.logger.Info("watchdog started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("watchdog cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.logger.Info("watchdog stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs one reconciliation pass over every store entry. The
// store is rewritten only when at least one entry changed.
func (w *Watchdog) RunOnce(ctx context.Context) error {
	entries, err := w.store.Load()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	dirty := false
	for _, id := range ids {
		if w.reconcile(ctx, id, entries[id]) {
			dirty = true
		}
	}

	if dirty {
		if err := w.store.Save(entries); err != nil {
			return err
		}
		w.logger.Info("configuration store updated")
	}
	return nil
}

// reconcile applies the supervision rules to one entry, in priority order.
// Returns true when the entry was mutated.
func (w *Watchdog) reconcile(ctx context.Context, id string, cfg *domain.StrategyConfig) bool {
	pid := 0
	if cfg.PID != nil {
		pid = *cfg.PID
	}
	alive := pid > 0 && w.pidAlive(pid)
	now := w.timeNow()

	// 1. Manually stopped entries must have no live process.
	if cfg.ManuallyStopped && alive {
		w.logger.Warn("manually stopped strategy still running, killing",
			zap.String("id", id), zap.Int("pid", pid))
		w.kill(id, pid)
		w.markStopped(cfg, now)
		w.alert(ctx, id, "manual_stop_enforced", DefaultAlertInterval,
			fmt.Sprintf("WATCHDOG: killed %s (pid %d), marked manually stopped", id, pid))
		return true
	}

	// 2. Risk breach in the logs of a live process forces a stop that only
	// an operator clears. A dead process with a breach in its last lines is
	// a crash, repaired by step 3 instead.
	if alive && !cfg.ManuallyStopped {
		if kw, found, err := ScanForBreach(w.logDir, id); err != nil {
			w.logger.Warn("log scan failed", zap.String("id", id), zap.Error(err))
		} else if found {
			w.logger.Error("risk breach detected, stopping strategy",
				zap.String("id", id), zap.String("keyword", kw))
			w.kill(id, pid)
			w.markStopped(cfg, now)
			cfg.ManuallyStopped = true
			cfg.PausedReason = "risk_breach"
			cfg.PausedMessage = fmt.Sprintf("watchdog detected %q in logs", kw)
			w.alert(ctx, id, "risk_breach", BreachAlertInterval,
				fmt.Sprintf("RISK BREACH: %s halted (%s), trading disabled until manually re-enabled", id, kw))
			return true
		}
	}

	// 3. Config says running but the process is gone: repair the record.
	if cfg.IsRunning && !alive {
		w.logger.Warn("strategy marked running but process is dead",
			zap.String("id", id), zap.Int("pid", pid))
		w.markStopped(cfg, now)
		w.alert(ctx, id, "dead_process", DefaultAlertInterval,
			fmt.Sprintf("WATCHDOG: %s marked running but pid %d is dead, state repaired", id, pid))
		return true
	}

	// 4. Outside the schedule window nothing may run.
	if cfg.IsRunning && alive && cfg.IsScheduled && !ShouldRunNow(cfg, now) {
		w.logger.Info("strategy outside schedule window, stopping",
			zap.String("id", id), zap.Int("pid", pid))
		w.kill(id, pid)
		w.markStopped(cfg, now)
		w.alert(ctx, id, "outside_schedule", DefaultAlertInterval,
			fmt.Sprintf("WATCHDOG: stopped %s, outside its schedule window", id))
		return true
	}

	// 5. Due per schedule but nothing is running: alert only. Starting a
	// process is not the watchdog's call.
	if !cfg.IsRunning && !cfg.ManuallyStopped && ShouldRunNow(cfg, now) {
		w.alert(ctx, id, "missing_during_window", MissingAlertInterval,
			fmt.Sprintf("WATCHDOG: %s should be running now but is not", id))
	}
	return false
}

func (w *Watchdog) kill(id string, pid int) {
	if err := w.terminate(pid, w.killGrace); err != nil {
		// Reported, retried naturally next cycle.
		w.logger.Error("failed to terminate strategy",
			zap.String("id", id), zap.Int("pid", pid), zap.Error(err))
	}
}

func (w *Watchdog) markStopped(cfg *domain.StrategyConfig, now time.Time) {
	cfg.IsRunning = false
	cfg.PID = nil
	cfg.LastStopped = now.Format("2006-01-02 15:04:05")
}

func (w *Watchdog) alert(ctx context.Context, id, condition string, interval time.Duration, message string) {
	key := id + ":" + condition
	if !w.alerts.ShouldAlert(key, interval) {
		return
	}
	w.logger.Info("alert", zap.String("key", key), zap.String("message", message))
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Send(ctx, message); err != nil {
		w.logger.Warn("alert delivery failed", zap.String("key", key), zap.Error(err))
	}
}
