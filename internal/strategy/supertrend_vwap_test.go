package strategy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/strategy"
)

// intradayCandles builds 5-minute bars within one session: constant closes
// with the given overrides applied to the final bar.
func intradayCandles(n int, base float64, lastClose, lastVolume float64) domain.Series {
	start := time.Date(2026, 9, 1, 9, 15, 0, 0, time.UTC)
	var out domain.Series
	for i := 0; i < n; i++ {
		c := base
		v := 1000.0
		if i == n-1 {
			c = lastClose
			v = lastVolume
		}
		out = append(out, domain.Candle{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c, High: c + 1, Low: c - 1, Close: c, Volume: v,
		})
	}
	return out
}

func TestSuperTrendVWAP_EntryOnConfirmedStrength(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Symbol:  "SBIN",
		Candles: intradayCandles(30, 100, 103, 10000),
		VIX:     15,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.Equal(t, 10, d.Quantity)
	assert.Equal(t, domain.UrgencyMedium, d.Urgency)
}

func TestSuperTrendVWAP_HighVIXTightensDeviationBand(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	// Same setup, but VIX over 25 shrinks the allowed VWAP deviation to
	// 1.2 percent, which this move exceeds.
	d, err := s.Decide(&domain.StrategyContext{
		Symbol:  "SBIN",
		Candles: intradayCandles(30, 100, 103, 10000),
		VIX:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
}

func TestSuperTrendVWAP_NoVolumeSpikeNoEntry(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Symbol:  "SBIN",
		Candles: intradayCandles(30, 100, 103, 1000),
		VIX:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
}

func TestSuperTrendVWAP_TrailingStopExit(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	// First cycle with a position arms the stop a few ATRs below.
	flat := intradayCandles(30, 100, 100, 1000)
	d, err := s.Decide(&domain.StrategyContext{Candles: flat, Position: 5, EntryPrice: 100})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)

	// A hard drop through the armed stop forces a full exit.
	crashed := append(domain.Series{}, flat...)
	crashed = append(crashed, domain.Candle{
		Timestamp: flat.Last().Timestamp.Add(5 * time.Minute),
		Open:      90, High: 91, Low: 89, Close: 90, Volume: 1000,
	})
	d, err = s.Decide(&domain.StrategyContext{Candles: crashed, Position: 5, EntryPrice: 100})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSell, d.Action)
	assert.Equal(t, 5, d.Quantity)
	assert.Equal(t, domain.UrgencyHigh, d.Urgency)
}

func TestSuperTrendVWAP_VWAPCrossExit(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	flat := intradayCandles(30, 100, 100, 1000)
	_, err := s.Decide(&domain.StrategyContext{Candles: flat, Position: 5, EntryPrice: 100})
	require.NoError(t, err)

	// A slip below VWAP that stays above the trailing stop still exits.
	dipped := append(domain.Series{}, flat...)
	dipped = append(dipped, domain.Candle{
		Timestamp: flat.Last().Timestamp.Add(5 * time.Minute),
		Open:      99, High: 100, Low: 98, Close: 99, Volume: 1000,
	})
	d, err := s.Decide(&domain.StrategyContext{Candles: dipped, Position: 5, EntryPrice: 100})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSell, d.Action)
	assert.Equal(t, domain.UrgencyMedium, d.Urgency)
	assert.Equal(t, "price crossed below vwap", d.Reason)
}

func TestSuperTrendVWAP_NeverManagesShorts(t *testing.T) {
	s := strategy.NewSuperTrendVWAP(strategy.SuperTrendVWAPParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Candles:  intradayCandles(30, 100, 100, 1000),
		Position: -5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
}

func TestVIXVolatilityMultiplier(t *testing.T) {
	cases := []struct {
		vix       float64
		size, dev float64
	}{
		{30, 0.5, 0.012},
		{22, 1.0, 0.025},
		{10, 1.0, 0.04},
		{15, 1.0, 0.03},
	}
	for _, tc := range cases {
		size, dev := strategy.VIXVolatilityMultiplier(tc.vix)
		assert.Equal(t, tc.size, size, "vix=%v", tc.vix)
		assert.Equal(t, tc.dev, dev, "vix=%v", tc.vix)
	}
}
