package strategy

import (
	"fmt"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/indicator"
)

// MCXMomentumParams configures the commodity momentum strategy. The
// seasonality, global-alignment and USD/INR inputs come from an external
// research pipeline and gate entries rather than generate signals.
type MCXMomentumParams struct {
	Quantity int

	ADXPeriod    int
	RSIPeriod    int
	ADXThreshold float64

	// SeasonalityScore below 41 blocks new entries. Zero is a legal
	// worst-case score, so absence is a nil pointer, not a zero value.
	SeasonalityScore *int
	// GlobalAlignmentScore below 40 blocks new entries.
	GlobalAlignmentScore *int
	// USDINRVolatility above 1.0 percent shrinks size by 30 percent.
	USDINRVolatility float64
}

// MCXMomentum trades commodity trends in both directions: ADX confirms a
// trend, RSI picks the side, and the last close must agree. Exits fire when
// the trend fades rather than at a fixed target.
type MCXMomentum struct {
	params      MCXMomentumParams
	seasonality int
	alignment   int
}

func NewMCXMomentum(params MCXMomentumParams) *MCXMomentum {
	if params.ADXPeriod <= 0 {
		params.ADXPeriod = 14
	}
	if params.RSIPeriod <= 0 {
		params.RSIPeriod = 14
	}
	if params.ADXThreshold <= 0 {
		params.ADXThreshold = 25
	}
	s := &MCXMomentum{params: params, seasonality: 50, alignment: 50}
	if params.SeasonalityScore != nil {
		s.seasonality = *params.SeasonalityScore
	}
	if params.GlobalAlignmentScore != nil {
		s.alignment = *params.GlobalAlignmentScore
	}
	return s
}

func (s *MCXMomentum) Name() string { return "mcx_momentum" }

func (s *MCXMomentum) Spec() domain.DataSpec {
	return domain.DataSpec{LookbackDays: 5, MinCandles: 50}
}

func (s *MCXMomentum) Decide(ctx *domain.StrategyContext) (domain.Decision, error) {
	candles := ctx.Candles
	if candles.Len() < 2 {
		return hold("not enough candles"), nil
	}

	closes := candles.Closes()
	rsi := indicator.Last(indicator.RSI(closes, s.params.RSIPeriod), 50)
	adx := indicator.ADXLast(candles, s.params.ADXPeriod)
	curr := closes[len(closes)-1]
	prev := closes[len(closes)-2]

	if ctx.Position != 0 {
		return s.manage(ctx, rsi, adx, curr), nil
	}

	if s.seasonality <= 40 {
		return hold("seasonality weak"), nil
	}
	if s.alignment < 40 {
		return hold("global alignment weak"), nil
	}

	sizeMult := 1.0
	if s.params.USDINRVolatility > 1.0 {
		sizeMult = 0.7
	}
	qty := scaleQuantity(s.params.Quantity, sizeMult)

	trending := adx > s.params.ADXThreshold
	switch {
	case trending && rsi > 55 && curr > prev:
		return domain.Decision{
			Action:         domain.ActionBuy,
			Quantity:       qty,
			Price:          curr,
			Urgency:        domain.UrgencyMedium,
			SizeMultiplier: sizeMult,
			Reason:         fmt.Sprintf("momentum buy: rsi=%.1f adx=%.1f", rsi, adx),
		}, nil
	case trending && rsi < 45 && curr < prev:
		return domain.Decision{
			Action:         domain.ActionSell,
			Quantity:       qty,
			Price:          curr,
			Urgency:        domain.UrgencyMedium,
			SizeMultiplier: sizeMult,
			Reason:         fmt.Sprintf("momentum sell: rsi=%.1f adx=%.1f", rsi, adx),
		}, nil
	}
	return hold("no momentum setup"), nil
}

func (s *MCXMomentum) manage(ctx *domain.StrategyContext, rsi, adx, close float64) domain.Decision {
	if ctx.Position > 0 && (rsi < 45 || adx < 20) {
		return domain.Decision{
			Action:   domain.ActionSell,
			Quantity: ctx.Position,
			Price:    close,
			Urgency:  domain.UrgencyMedium,
			Reason:   fmt.Sprintf("long trend faded: rsi=%.1f adx=%.1f", rsi, adx),
		}
	}
	if ctx.Position < 0 && (rsi > 55 || adx < 20) {
		return domain.Decision{
			Action:   domain.ActionBuy,
			Quantity: -ctx.Position,
			Price:    close,
			Urgency:  domain.UrgencyMedium,
			Reason:   fmt.Sprintf("short trend faded: rsi=%.1f adx=%.1f", rsi, adx),
		}
	}
	return hold("trend intact")
}
