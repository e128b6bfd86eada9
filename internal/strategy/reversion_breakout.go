package strategy

import (
	"fmt"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/indicator"
)

// HybridReversionBreakoutParams configures the two-mode equity strategy.
type HybridReversionBreakoutParams struct {
	Quantity int

	RSILower float64
	RSIUpper float64
	// StopPct is the fixed stop-loss distance as a percentage of entry.
	StopPct float64
	Sector  string
	// EarningsDate (YYYY-MM-DD) blocks trading in the two days before
	// results; empty disables the filter.
	EarningsDate string

	BollingerWindow int
	BollingerK      float64
}

// HybridReversionBreakout buys both extremes: oversold snapbacks below the
// lower Bollinger band on moderate volume, and band breakouts on heavy
// volume. Both modes are long-only; the breakout leg demands twice the
// average volume since it is buying into strength.
type HybridReversionBreakout struct {
	params  HybridReversionBreakoutParams
	timeNow func() time.Time
}

func NewHybridReversionBreakout(params HybridReversionBreakoutParams) *HybridReversionBreakout {
	if params.RSILower <= 0 {
		params.RSILower = 30
	}
	if params.RSIUpper <= 0 {
		params.RSIUpper = 60
	}
	if params.StopPct <= 0 {
		params.StopPct = 1.0
	}
	if params.Sector == "" {
		params.Sector = "NIFTY 50"
	}
	if params.BollingerWindow <= 0 {
		params.BollingerWindow = 20
	}
	if params.BollingerK <= 0 {
		params.BollingerK = 2.0
	}
	return &HybridReversionBreakout{params: params, timeNow: time.Now}
}

func (s *HybridReversionBreakout) Name() string { return "hybrid_reversion_breakout" }

func (s *HybridReversionBreakout) Spec() domain.DataSpec {
	return domain.DataSpec{
		LookbackDays: 30,
		MinCandles:   20,
		IndexSymbol:  s.params.Sector,
		NeedVIX:      true,
	}
}

func (s *HybridReversionBreakout) Decide(ctx *domain.StrategyContext) (domain.Decision, error) {
	if s.earningsNear() {
		return hold("earnings within two days"), nil
	}

	closes := ctx.Candles.Closes()
	rsi := indicator.Last(indicator.RSI(closes, 14), 50)
	mid, upper, lower := indicator.BollingerBands(closes, s.params.BollingerWindow, s.params.BollingerK)

	last := ctx.Candles.Last()
	sma20 := indicator.Last(mid, last.Close)

	if ctx.Position != 0 {
		return s.manage(ctx, last.Close, sma20), nil
	}

	if !s.sectorStrong(ctx.Index) {
		return hold("sector below its 20-day average"), nil
	}

	sizeMult := 1.0
	if ctx.VIX > 25 {
		sizeMult = 0.5
	}

	avgVol := indicator.Last(indicator.SMA(ctx.Candles.Volumes(), 20), 0)
	upperBand := indicator.Last(upper, last.Close)
	lowerBand := indicator.Last(lower, last.Close)

	if rsi < s.params.RSILower && last.Close < lowerBand && last.Volume > avgVol*1.2 {
		return domain.Decision{
			Action:         domain.ActionBuy,
			Quantity:       scaleQuantity(s.params.Quantity, sizeMult),
			Price:          last.Close,
			Urgency:        domain.UrgencyMedium,
			SizeMultiplier: sizeMult,
			Reason:         fmt.Sprintf("oversold reversion: rsi=%.1f close=%.2f", rsi, last.Close),
		}, nil
	}
	if rsi > s.params.RSIUpper && last.Close > upperBand && last.Volume > avgVol*2.0 {
		return domain.Decision{
			Action:         domain.ActionBuy,
			Quantity:       scaleQuantity(s.params.Quantity, sizeMult),
			Price:          last.Close,
			Urgency:        domain.UrgencyMedium,
			SizeMultiplier: sizeMult,
			Reason:         fmt.Sprintf("band breakout: rsi=%.1f close=%.2f", rsi, last.Close),
		}, nil
	}
	return hold("no setup"), nil
}

func (s *HybridReversionBreakout) manage(ctx *domain.StrategyContext, close, sma20 float64) domain.Decision {
	entry := ctx.EntryPrice
	stop := s.params.StopPct / 100

	if ctx.Position > 0 && close < entry*(1-stop) {
		return domain.Decision{
			Action:   domain.ActionSell,
			Quantity: ctx.Position,
			Urgency:  domain.UrgencyHigh,
			Reason:   fmt.Sprintf("stop loss hit at %.2f", close),
		}
	}
	if ctx.Position < 0 && close > entry*(1+stop) {
		return domain.Decision{
			Action:   domain.ActionBuy,
			Quantity: -ctx.Position,
			Urgency:  domain.UrgencyHigh,
			Reason:   fmt.Sprintf("stop loss hit at %.2f", close),
		}
	}
	if ctx.Position > 0 && close > sma20 {
		return domain.Decision{
			Action:   domain.ActionSell,
			Quantity: ctx.Position,
			Price:    close,
			Urgency:  domain.UrgencyMedium,
			Reason:   "reversion target reached at sma20",
		}
	}
	return hold("holding position")
}

// sectorStrong requires the benchmark's daily close above its 20-day SMA.
// Insufficient benchmark data allows the entry.
func (s *HybridReversionBreakout) sectorStrong(index domain.Series) bool {
	if index.Len() < 20 {
		return true
	}
	sma := indicator.Last(indicator.SMA(index.Closes(), 20), 0)
	return index.Last().Close > sma
}

func (s *HybridReversionBreakout) earningsNear() bool {
	if s.params.EarningsDate == "" {
		return false
	}
	var parsed time.Time
	for _, layout := range []string{"2006-01-02", "02-01-2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s.params.EarningsDate); err == nil {
			parsed = t
			break
		}
	}
	if parsed.IsZero() {
		return false
	}
	days := int(parsed.Sub(s.timeNow()).Hours() / 24)
	return days >= 0 && days <= 2
}
