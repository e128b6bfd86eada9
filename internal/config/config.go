// Package config loads and validates the per-strategy runner configuration.
// Unknown YAML keys are a load-time error: a typoed parameter must fail the
// launch, never silently fall back to a default.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"gopkg.in/yaml.v3"
)

// RunnerConfig is the full configuration for one strategy process.
type RunnerConfig struct {
	// ID names the process in logs, the watchdog store and order tags.
	ID       string `yaml:"id" validate:"required"`
	Strategy string `yaml:"strategy" validate:"required,oneof=supertrend_vwap mcx_momentum hybrid_reversion_breakout"`

	Symbol   string `yaml:"symbol" validate:"required"`
	Exchange string `yaml:"exchange" validate:"required"`
	Interval string `yaml:"interval"`
	Product  string `yaml:"product"`

	Quantity    int     `yaml:"quantity" validate:"min=0"`
	Capital     float64 `yaml:"capital" validate:"min=0"`
	RiskPct     float64 `yaml:"risk_pct" validate:"min=0,max=100"`
	PollSeconds int     `yaml:"poll_seconds" validate:"min=0"`
	IgnoreTime  bool    `yaml:"ignore_time"`
	Sector      string  `yaml:"sector"`

	StateDir string `yaml:"state_dir"`
	LogDir   string `yaml:"log_dir"`
	CacheDir string `yaml:"cache_dir"`

	Gateway GatewayConfig `yaml:"gateway"`
	Logging LoggingConfig `yaml:"logging"`

	Limits *LimitsConfig `yaml:"limits"`

	// Exactly one of these should match Strategy; the others stay nil.
	SuperTrendVWAP *SuperTrendVWAPConfig `yaml:"supertrend_vwap"`
	MCXMomentum    *MCXMomentumConfig    `yaml:"mcx_momentum"`
	Hybrid         *HybridConfig         `yaml:"hybrid_reversion_breakout"`
}

type GatewayConfig struct {
	Host           string `yaml:"host"`
	WSURL          string `yaml:"ws_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=0"`
	MaxRetries     int    `yaml:"max_retries" validate:"min=0,max=10"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type LimitsConfig struct {
	MaxTradesPerDay  int `yaml:"max_trades_per_day" validate:"min=0"`
	MaxTradesPerHour int `yaml:"max_trades_per_hour" validate:"min=0"`
	CooldownSeconds  int `yaml:"cooldown_seconds" validate:"min=0"`
}

type SuperTrendVWAPConfig struct {
	SectorBenchmark   string  `yaml:"sector_benchmark"`
	StopATRMultiplier float64 `yaml:"stop_atr_multiplier" validate:"min=0"`
	ATRPeriod         int     `yaml:"atr_period" validate:"min=0"`
	VolumeWindow      int     `yaml:"volume_window" validate:"min=0"`
	VolumeSigma       float64 `yaml:"volume_sigma" validate:"min=0"`
	ProfileBins       int     `yaml:"profile_bins" validate:"min=0"`
}

type MCXMomentumConfig struct {
	ADXPeriod    int     `yaml:"adx_period" validate:"min=0"`
	RSIPeriod    int     `yaml:"rsi_period" validate:"min=0"`
	ADXThreshold float64 `yaml:"adx_threshold" validate:"min=0"`
	// Pointers distinguish an explicit worst-case 0 from an absent key.
	SeasonalityScore     *int    `yaml:"seasonality_score" validate:"omitempty,min=0,max=100"`
	GlobalAlignmentScore *int    `yaml:"global_alignment_score" validate:"omitempty,min=0,max=100"`
	USDINRVolatility     float64 `yaml:"usd_inr_volatility" validate:"min=0"`
}

type HybridConfig struct {
	RSILower        float64 `yaml:"rsi_lower" validate:"min=0,max=100"`
	RSIUpper        float64 `yaml:"rsi_upper" validate:"min=0,max=100"`
	StopPct         float64 `yaml:"stop_pct" validate:"min=0"`
	Sector          string  `yaml:"sector"`
	EarningsDate    string  `yaml:"earnings_date" validate:"omitempty,datetime=2006-01-02"`
	BollingerWindow int     `yaml:"bollinger_window" validate:"min=0"`
	BollingerK      float64 `yaml:"bollinger_k" validate:"min=0"`
}

// PollInterval returns the cycle sleep, defaulting to one minute.
func (c *RunnerConfig) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// Load reads, strictly decodes, validates and normalizes a runner config.
func Load(path string) (*RunnerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var cfg RunnerConfig
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.Symbol = domain.NormalizeSymbol(cfg.Symbol)
	if cfg.Sector != "" {
		cfg.Sector = domain.NormalizeSymbol(cfg.Sector)
	}
	return &cfg, nil
}

func (c *RunnerConfig) applyDefaults() {
	if c.Interval == "" {
		c.Interval = "5m"
	}
	if c.Product == "" {
		c.Product = "MIS"
	}
	if c.StateDir == "" {
		c.StateDir = "state"
	}
	if c.LogDir == "" {
		c.LogDir = "log"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
