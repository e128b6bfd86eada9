package strategy

import (
	"fmt"
	"math"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/indicator"
)

// SuperTrendVWAPParams configures the VWAP reversion strategy. Zero values
// take the documented defaults.
type SuperTrendVWAPParams struct {
	// Quantity is the base order size; 0 delegates sizing to the runtime.
	Quantity int
	// SectorBenchmark gates entries on the benchmark's daily RSI.
	SectorBenchmark string
	// StopATRMultiplier sets the trailing stop distance in ATRs.
	StopATRMultiplier float64
	ATRPeriod         int
	VolumeWindow      int
	VolumeSigma       float64
	ProfileBins       int
}

// SuperTrendVWAP is a long-only intraday VWAP strategy: it buys strength
// confirmed by a volume spike and the volume-profile POC, as long as price
// has not overextended from VWAP, and rides the position on an ATR trailing
// stop that ratchets up only.
type SuperTrendVWAP struct {
	params SuperTrendVWAPParams

	trailingStop float64
}

func NewSuperTrendVWAP(params SuperTrendVWAPParams) *SuperTrendVWAP {
	if params.SectorBenchmark == "" {
		params.SectorBenchmark = "NIFTY BANK"
	}
	if params.StopATRMultiplier <= 0 {
		params.StopATRMultiplier = 3.0
	}
	if params.ATRPeriod <= 0 {
		params.ATRPeriod = 14
	}
	if params.VolumeWindow <= 0 {
		params.VolumeWindow = 20
	}
	if params.VolumeSigma <= 0 {
		params.VolumeSigma = 1.5
	}
	if params.ProfileBins <= 0 {
		params.ProfileBins = 20
	}
	return &SuperTrendVWAP{params: params}
}

func (s *SuperTrendVWAP) Name() string { return "supertrend_vwap" }

func (s *SuperTrendVWAP) Spec() domain.DataSpec {
	return domain.DataSpec{
		LookbackDays: 30,
		MinCandles:   50,
		IndexSymbol:  s.params.SectorBenchmark,
		NeedVIX:      true,
	}
}

func (s *SuperTrendVWAP) Decide(ctx *domain.StrategyContext) (domain.Decision, error) {
	vwap, dev := indicator.VWAP(ctx.Candles)
	if len(vwap) == 0 {
		return hold("no data"), nil
	}

	last := ctx.Candles.Last()
	lastVWAP := vwap[len(vwap)-1]
	lastDev := dev[len(dev)-1]
	atr := indicator.ATRLast(ctx.Candles, s.params.ATRPeriod)

	if ctx.Position > 0 {
		return s.manage(ctx, last.Close, lastVWAP, atr), nil
	}
	// Short positions are never opened here; a stray short is left to the
	// operator rather than managed with long rules.
	if ctx.Position < 0 {
		return hold("existing short not managed"), nil
	}

	return s.enter(ctx, last, lastVWAP, lastDev, atr), nil
}

func (s *SuperTrendVWAP) manage(ctx *domain.StrategyContext, close, vwapNow, atr float64) domain.Decision {
	newStop := close - s.params.StopATRMultiplier*atr
	if s.trailingStop == 0 || newStop > s.trailingStop {
		s.trailingStop = newStop
	}

	if close < s.trailingStop {
		s.trailingStop = 0
		return domain.Decision{
			Action:   domain.ActionSell,
			Quantity: ctx.Position,
			Urgency:  domain.UrgencyHigh,
			Reason:   fmt.Sprintf("trailing stop hit at %.2f", close),
		}
	}
	if close < vwapNow {
		s.trailingStop = 0
		return domain.Decision{
			Action:   domain.ActionSell,
			Quantity: ctx.Position,
			Price:    close,
			Urgency:  domain.UrgencyMedium,
			Reason:   "price crossed below vwap",
		}
	}
	return hold("riding position")
}

func (s *SuperTrendVWAP) enter(ctx *domain.StrategyContext, last domain.Candle, vwapNow, devNow, atr float64) domain.Decision {
	if !s.sectorBullish(ctx.Index) {
		return hold("sector weak")
	}

	volumes := ctx.Candles.Volumes()
	volMean := indicator.Last(indicator.SMA(volumes, s.params.VolumeWindow), 0)
	volStd := indicator.Last(indicator.RollingStd(volumes, s.params.VolumeWindow), 0)
	volumeSpike := last.Volume > volMean+s.params.VolumeSigma*volStd

	poc, _ := indicator.VolumeProfilePOC(ctx.Candles, s.params.ProfileBins)

	sizeMult, devThreshold := VIXVolatilityMultiplier(ctx.VIX)

	aboveVWAP := last.Close > vwapNow
	abovePOC := last.Close > poc
	notOverextended := math.Abs(devNow) < devThreshold

	if aboveVWAP && volumeSpike && abovePOC && notOverextended {
		s.trailingStop = last.Close - s.params.StopATRMultiplier*atr
		return domain.Decision{
			Action:         domain.ActionBuy,
			Quantity:       scaleQuantity(s.params.Quantity, sizeMult),
			Price:          last.Close,
			Urgency:        domain.UrgencyMedium,
			SizeMultiplier: sizeMult,
			Reason: fmt.Sprintf("vwap crossover buy: close=%.2f poc=%.2f dev=%.4f vix=%.1f",
				last.Close, poc, devNow, ctx.VIX),
		}
	}
	return hold("entry conditions not met")
}

// sectorBullish checks the benchmark's daily RSI(14). Missing benchmark
// data allows the entry so a dead index feed cannot block trading.
func (s *SuperTrendVWAP) sectorBullish(index domain.Series) bool {
	if index.Len() < 15 {
		return true
	}
	return indicator.Last(indicator.RSI(index.Closes(), 14), 50) > 50
}

func hold(reason string) domain.Decision {
	return domain.Decision{Action: domain.ActionHold, Reason: reason}
}
