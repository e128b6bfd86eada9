package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/gateway"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/logger"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "backfill",
		Usage: "Fetch gateway history into the local candle database",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol to backfill; repeat for several",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "exchange",
				Value: "NSE",
			},
			&cli.StringFlag{
				Name:  "interval",
				Value: "5m",
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date `YYYY-MM-DD`",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date `YYYY-MM-DD`, defaults to today",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path",
				Value: "cache/history.db",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Gateway host",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Action: runBackfill,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBackfill(ctx context.Context, cmd *cli.Command) error {
	_ = godotenv.Load()

	log, err := logger.NewLogger(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	apiKey := os.Getenv("GATEWAY_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GATEWAY_API_KEY is not set")
	}

	store, err := storage.NewSQLiteStore(cmd.String("db"))
	if err != nil {
		return fmt.Errorf("open candle db: %w", err)
	}
	defer store.Close()

	client, err := gateway.NewClient(gateway.Options{
		APIKey: apiKey,
		Host:   cmd.String("host"),
		Logger: log,
	})
	if err != nil {
		return err
	}

	exchange := cmd.String("exchange")
	interval := cmd.String("interval")
	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")

	for _, symbol := range cmd.StringSlice("symbol") {
		candles, err := client.History(ctx, symbol, exchange, interval, start, end)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", symbol, err)
		}
		if len(candles) == 0 {
			log.Warn("no candles returned", zap.String("symbol", symbol))
			continue
		}
		if err := store.SaveCandles(ctx, symbol, exchange, interval, candles); err != nil {
			return fmt.Errorf("save %s: %w", symbol, err)
		}
		log.Info("backfilled",
			zap.String("symbol", symbol),
			zap.Int("candles", len(candles)),
			zap.Time("from", candles[0].Timestamp),
			zap.Time("to", candles[len(candles)-1].Timestamp))
	}
	return nil
}
