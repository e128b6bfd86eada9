package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/vitos/algo_trade_runner/internal/config"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/gateway"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/logger"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/notify"
	"github.com/vitos/algo_trade_runner/internal/infrastructure/storage"
	"github.com/vitos/algo_trade_runner/internal/strategy"
	"github.com/vitos/algo_trade_runner/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "strategy",
		Usage: "Run one trading strategy against the broker gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the runner YAML config",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Override the configured symbol",
			},
			&cli.IntFlag{
				Name:  "quantity",
				Usage: "Override the configured fixed quantity",
			},
			&cli.BoolFlag{
				Name:  "ignore-time",
				Usage: "Run cycles outside market hours",
			},
		},
		Action: runStrategy,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runStrategy(ctx context.Context, cmd *cli.Command) error {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if s := cmd.String("symbol"); s != "" {
		cfg.Symbol = domain.NormalizeSymbol(s)
	}
	if q := cmd.Int("quantity"); q > 0 {
		cfg.Quantity = int(q)
	}
	if cmd.Bool("ignore-time") {
		cfg.IgnoreTime = true
	}

	logPath := logger.StrategyLogPath(cfg.LogDir, cfg.ID, time.Now())
	log, err := logger.NewStrategyLogger(cfg.Logging.Level, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	apiKey := os.Getenv("GATEWAY_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GATEWAY_API_KEY is not set")
	}

	var fallback domain.HistoryStore
	if cfg.CacheDir != "" {
		store, err := storage.NewSQLiteStore(cfg.CacheDir + "/history.db")
		if err != nil {
			return fmt.Errorf("open history db: %w", err)
		}
		defer store.Close()
		fallback = store
	}

	client, err := gateway.NewClient(gateway.Options{
		APIKey:     apiKey,
		Host:       cfg.Gateway.Host,
		Timeout:    time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Gateway.MaxRetries,
		CacheDir:   cfg.CacheDir,
		Fallback:   fallback,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	pm, err := usecase.NewPositionManager(cfg.Symbol, cfg.StateDir, log)
	if err != nil {
		return err
	}
	defer pm.Close()

	strat, err := buildStrategy(cfg)
	if err != nil {
		return err
	}

	var limiter *usecase.TradeLimiter
	if l := cfg.Limits; l != nil {
		limiter = usecase.NewTradeLimiter(l.MaxTradesPerDay, l.MaxTradesPerHour,
			time.Duration(l.CooldownSeconds)*time.Second, log)
	}

	var notifier domain.Notifier
	if tg := notify.NewTelegramNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"), log); tg.Enabled() {
		notifier = tg
	}

	rt, err := usecase.NewRuntime(usecase.RuntimeOptions{
		Strategy:          strat,
		Gateway:           client,
		Position:          pm,
		Orders:            usecase.NewSmartOrder(client, log),
		Notifier:          notifier,
		Logger:            log,
		Symbol:            cfg.Symbol,
		Exchange:          cfg.Exchange,
		Interval:          cfg.Interval,
		Product:           cfg.Product,
		Quantity:          cfg.Quantity,
		Capital:           cfg.Capital,
		RiskPct:           cfg.RiskPct,
		IgnoreMarketHours: cfg.IgnoreTime,
		PollInterval:      cfg.PollInterval(),
		Limiter:           limiter,
		Freshness:         usecase.NewDataFreshnessGuard(5, false, log),
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if wsURL := cfg.Gateway.WSURL; wsURL != "" {
		stream := gateway.NewStream(wsURL, apiKey, client, log)
		if err := stream.Subscribe(cfg.Symbol, cfg.Exchange); err != nil {
			log.Warn("ltp subscription failed", zap.Error(err))
		}
		go stream.Run(runCtx)
	}

	log.Info("starting strategy process",
		zap.String("id", cfg.ID),
		zap.String("strategy", cfg.Strategy),
		zap.String("symbol", cfg.Symbol))

	if err := rt.Run(runCtx); err != nil && runCtx.Err() == nil {
		return err
	}
	return nil
}

func buildStrategy(cfg *config.RunnerConfig) (domain.Strategy, error) {
	switch cfg.Strategy {
	case "supertrend_vwap":
		params := strategy.SuperTrendVWAPParams{Quantity: cfg.Quantity, SectorBenchmark: cfg.Sector}
		if c := cfg.SuperTrendVWAP; c != nil {
			if c.SectorBenchmark != "" {
				params.SectorBenchmark = c.SectorBenchmark
			}
			params.StopATRMultiplier = c.StopATRMultiplier
			params.ATRPeriod = c.ATRPeriod
			params.VolumeWindow = c.VolumeWindow
			params.VolumeSigma = c.VolumeSigma
			params.ProfileBins = c.ProfileBins
		}
		return strategy.NewSuperTrendVWAP(params), nil
	case "mcx_momentum":
		params := strategy.MCXMomentumParams{Quantity: cfg.Quantity}
		if c := cfg.MCXMomentum; c != nil {
			params.ADXPeriod = c.ADXPeriod
			params.RSIPeriod = c.RSIPeriod
			params.ADXThreshold = c.ADXThreshold
			params.SeasonalityScore = c.SeasonalityScore
			params.GlobalAlignmentScore = c.GlobalAlignmentScore
			params.USDINRVolatility = c.USDINRVolatility
		}
		return strategy.NewMCXMomentum(params), nil
	case "hybrid_reversion_breakout":
		params := strategy.HybridReversionBreakoutParams{Quantity: cfg.Quantity, Sector: cfg.Sector}
		if c := cfg.Hybrid; c != nil {
			params.RSILower = c.RSILower
			params.RSIUpper = c.RSIUpper
			params.StopPct = c.StopPct
			if c.Sector != "" {
				params.Sector = c.Sector
			}
			params.EarningsDate = c.EarningsDate
			params.BollingerWindow = c.BollingerWindow
			params.BollingerK = c.BollingerK
		}
		return strategy.NewHybridReversionBreakout(params), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}
