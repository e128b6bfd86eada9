package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/logger"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/notify"
	"github.com/vitos/algo_trade_runner/internal/watchdog"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "watchdog",
		Usage: "Supervise strategy processes against the shared configuration store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "Path to the strategy configuration store",
				Value: "strategies.json",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Directory holding the strategy log files",
				Value: "log",
			},
			&cli.StringFlag{
				Name:  "state-dir",
				Usage: "Directory for the watchdog's own state (pid file, alert dedupe)",
				Value: "state",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Reconciliation interval",
				Value:   30 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single reconciliation pass and exit",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Action: runWatchdog,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWatchdog(ctx context.Context, cmd *cli.Command) error {
	_ = godotenv.Load()

	log, err := logger.NewLogger(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	stateDir := cmd.String("state-dir")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	release, err := watchdog.AcquirePIDFile(filepath.Join(stateDir, "watchdog.pid"))
	if err != nil {
		if errors.Is(err, watchdog.ErrAlreadyRunning) {
			// A live instance already holds the lock; nothing to do.
			log.Info("watchdog already running, exiting")
			return nil
		}
		return err
	}
	defer release()

	var notifier domain.Notifier
	if tg := notify.NewTelegramNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"), log); tg.Enabled() {
		notifier = tg
	}

	wd, err := watchdog.New(watchdog.Options{
		Store:    watchdog.NewConfigStore(cmd.String("store")),
		Alerts:   watchdog.NewAlertState(filepath.Join(stateDir, "watchdog_alerts.json"), log),
		LogDir:   cmd.String("log-dir"),
		Notifier: notifier,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("once") {
		return wd.RunOnce(runCtx)
	}

	log.Info("watchdog supervising", zap.String("store", cmd.String("store")))
	if err := wd.Run(runCtx, cmd.Duration("interval")); err != nil && runCtx.Err() == nil {
		return err
	}
	return nil
}
