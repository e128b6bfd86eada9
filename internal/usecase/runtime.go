package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/indicator"
	"go.uber.org/zap"
)

// RuntimeOptions wires one strategy process together.
type RuntimeOptions struct {
	Strategy domain.Strategy
	Gateway  domain.Gateway
	Position *PositionManager
	Orders   *SmartOrder
	Notifier domain.Notifier
	Logger   *zap.Logger

	Symbol   string
	Exchange string
	Interval string
	Product  string

	// Quantity 0 enables adaptive sizing from Capital and RiskPct.
	Quantity int
	Capital  float64
	RiskPct  float64

	// IgnoreMarketHours runs cycles around the clock, for paper trading
	// against replayed data.
	IgnoreMarketHours bool

	PollInterval time.Duration
	Limiter      *TradeLimiter
	Freshness    *DataFreshnessGuard
}

// Runtime drives one strategy against one symbol: fetch data, evaluate,
// execute, sleep, repeat. A cycle failure is logged and the loop carries on;
// only context cancellation stops it.
type Runtime struct {
	strategy domain.Strategy
	gateway  domain.Gateway
	position *PositionManager
	orders   *SmartOrder
	notifier domain.Notifier
	logger   *zap.Logger

	symbol   string
	exchange string
	interval string
	product  string

	quantity int
	capital  float64
	riskPct  float64

	ignoreTime bool
	poll       time.Duration
	limiter    *TradeLimiter
	freshness  *DataFreshnessGuard

	timeNow func() time.Time
}

func NewRuntime(opts RuntimeOptions) (*Runtime, error) {
	if opts.Strategy == nil {
		return nil, fmt.Errorf("runtime: strategy is required")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("runtime: gateway is required")
	}
	if opts.Position == nil {
		return nil, fmt.Errorf("runtime: position manager is required")
	}
	if opts.Orders == nil {
		return nil, fmt.Errorf("runtime: smart order router is required")
	}
	if opts.Symbol == "" || opts.Exchange == "" {
		return nil, fmt.Errorf("runtime: symbol and exchange are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Interval == "" {
		opts.Interval = "5m"
	}
	if opts.Product == "" {
		opts.Product = "MIS"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 60 * time.Second
	}

	return &Runtime{
		strategy:   opts.Strategy,
		gateway:    opts.Gateway,
		position:   opts.Position,
		orders:     opts.Orders,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		symbol:     opts.Symbol,
		exchange:   opts.Exchange,
		interval:   opts.Interval,
		product:    opts.Product,
		quantity:   opts.Quantity,
		capital:    opts.Capital,
		riskPct:    opts.RiskPct,
		ignoreTime: opts.IgnoreMarketHours,
		poll:       opts.PollInterval,
		limiter:    opts.Limiter,
		freshness:  opts.Freshness,
		timeNow:    time.Now,
	}, nil
}

// Run executes cycles until ctx is cancelled. Outside market hours the loop
// idles in one-minute steps instead of evaluating.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("strategy runtime started",
		zap.String("strategy", r.strategy.Name()),
		zap.String("symbol", r.symbol),
		zap.String("exchange", r.exchange),
		zap.Duration("poll", r.poll))

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("strategy runtime stopped", zap.String("symbol", r.symbol))
			return err
		}

		wait := r.poll
		if !r.ignoreTime && !IsMarketOpen(r.exchange, r.timeNow()) {
			wait = time.Minute
		} else if err := r.safeCycle(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("cycle failed", zap.String("symbol", r.symbol), zap.Error(err))
		}

		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
}

// safeCycle contains a panicking strategy so a single bad evaluation does
// not take the process down.
func (r *Runtime) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cycle panic: %v", rec)
		}
	}()
	return r.cycle(ctx)
}

func (r *Runtime) cycle(ctx context.Context) error {
	spec := r.strategy.Spec()

	candles, err := r.FetchHistory(ctx, r.symbol, r.exchange, r.interval, spec.LookbackDays)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(candles) < spec.MinCandles {
		r.logger.Warn("insufficient candles, holding",
			zap.String("symbol", r.symbol),
			zap.Int("have", len(candles)),
			zap.Int("need", spec.MinCandles))
		return nil
	}

	if r.freshness != nil {
		if ok, reason := r.freshness.Fresh(candles); !ok {
			r.logger.Warn("data not fresh, holding",
				zap.String("symbol", r.symbol), zap.String("reason", reason))
			return nil
		}
	}

	var index domain.Series
	if spec.IndexSymbol != "" {
		index, err = r.FetchHistory(ctx, domain.NormalizeSymbol(spec.IndexSymbol), "NSE_INDEX", "D", 60)
		if err != nil {
			r.logger.Warn("index history unavailable",
				zap.String("index", spec.IndexSymbol), zap.Error(err))
		}
	}

	var vix float64
	if spec.NeedVIX {
		vix = r.VIX(ctx)
	}

	ltp := r.CurrentPrice(ctx, candles)

	decision, err := r.strategy.Decide(&domain.StrategyContext{
		Symbol:     r.symbol,
		Candles:    candles,
		Index:      index,
		Position:   r.position.Position(),
		EntryPrice: r.position.EntryPrice(),
		LTP:        ltp,
		VIX:        vix,
	})
	if err != nil {
		return fmt.Errorf("strategy %s: %w", r.strategy.Name(), err)
	}

	if decision.Action == domain.ActionHold {
		return nil
	}

	r.logger.Info("signal",
		zap.String("strategy", r.strategy.Name()),
		zap.String("symbol", r.symbol),
		zap.String("action", string(decision.Action)),
		zap.String("reason", decision.Reason))

	return r.execute(ctx, decision, ltp)
}

func (r *Runtime) execute(ctx context.Context, decision domain.Decision, ltp float64) error {
	qty := decision.Quantity
	if qty == 0 {
		qty = r.quantity
		if qty == 0 {
			qty = r.AdaptiveQuantity(ctx, ltp)
		}
		// A non-zero decision quantity is already scaled by the strategy.
		if m := decision.SizeMultiplier; m > 0 && qty > 0 {
			qty = int(float64(qty) * m)
			if qty < 1 {
				qty = 1
			}
		}
	}
	if qty <= 0 {
		r.logger.Warn("sized to zero, skipping trade", zap.String("symbol", r.symbol))
		return nil
	}

	side := domain.SideBuy
	target := r.position.Position() + qty
	if decision.Action == domain.ActionSell {
		side = domain.SideSell
		target = r.position.Position() - qty
	}

	opening := r.position.Position() == 0 ||
		(r.position.Position() > 0) == (side == domain.SideBuy)
	if opening && r.limiter != nil && !r.limiter.Allow() {
		r.logger.Warn("trade limit active, skipping entry", zap.String("symbol", r.symbol))
		return nil
	}

	result := r.orders.Place(ctx, PlaceRequest{
		Strategy:     r.strategy.Name(),
		Symbol:       r.symbol,
		Exchange:     r.exchange,
		Product:      r.product,
		Action:       side,
		Quantity:     qty,
		PositionSize: target,
		LimitPrice:   decision.Price,
		Urgency:      decision.Urgency,
	})

	if result.Status == StatusFailed {
		r.notify(ctx, fmt.Sprintf("ORDER FAILED %s %s x%d: %s", side, r.symbol, qty, result.Message))
		return fmt.Errorf("order failed: %s", result.Message)
	}

	fillPrice := decision.Price
	if fillPrice <= 0 {
		fillPrice = ltp
	}
	r.position.UpdatePosition(qty, fillPrice, side)
	if opening && r.limiter != nil {
		r.limiter.Record()
	}

	msg := fmt.Sprintf("%s %s x%d @ %.2f (%s)", side, r.symbol, qty, fillPrice, decision.Reason)
	if result.Status == StatusAmbiguous {
		msg += " [unconfirmed]"
	}
	r.notify(ctx, msg)
	return nil
}

func (r *Runtime) notify(ctx context.Context, message string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Send(ctx, message); err != nil {
		r.logger.Warn("notification failed", zap.Error(err))
	}
}

// FetchHistory pulls lookbackDays of candles ending now.
func (r *Runtime) FetchHistory(ctx context.Context, symbol, exchange, interval string, lookbackDays int) (domain.Series, error) {
	if lookbackDays <= 0 {
		lookbackDays = 5
	}
	end := r.timeNow()
	start := end.AddDate(0, 0, -lookbackDays)
	return r.gateway.History(ctx, symbol, exchange, interval, start, end)
}

// CurrentPrice prefers a live quote and falls back to the last close when
// the quote endpoint is down.
func (r *Runtime) CurrentPrice(ctx context.Context, candles domain.Series) float64 {
	quote, err := r.gateway.Quote(ctx, r.symbol, r.exchange)
	if err == nil && quote.LTP > 0 {
		return quote.LTP
	}
	if err != nil {
		r.logger.Warn("quote unavailable, using last close",
			zap.String("symbol", r.symbol), zap.Error(err))
	}
	if candles.Len() > 0 {
		return candles.Last().Close
	}
	return 0
}

// MonthlyATR estimates volatility from daily candles: ATR(14) over the last
// 40 days. Returns 0 when the data is too short.
func (r *Runtime) MonthlyATR(ctx context.Context) float64 {
	daily, err := r.FetchHistory(ctx, r.symbol, r.exchange, "D", 40)
	if err != nil || len(daily) < 15 {
		return 0
	}
	return indicator.ATRLast(daily, 14)
}

// AdaptiveQuantity sizes from configured capital and risk against the
// daily ATR.
func (r *Runtime) AdaptiveQuantity(ctx context.Context, price float64) int {
	if r.capital <= 0 || r.riskPct <= 0 {
		return 0
	}
	atr := r.MonthlyATR(ctx)
	return r.position.RiskAdjustedQuantity(r.capital, r.riskPct, atr, price)
}

// VIX returns the current India VIX level, defaulting to a mid-regime 15
// when the quote is unavailable.
func (r *Runtime) VIX(ctx context.Context) float64 {
	quote, err := r.gateway.Quote(ctx, "INDIA VIX", "NSE_INDEX")
	if err != nil || quote.LTP <= 0 {
		r.logger.Warn("vix unavailable, using default", zap.Float64("default", 15))
		return 15
	}
	return quote.LTP
}
