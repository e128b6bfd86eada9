package strategy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/strategy"
)

// quietThenMove builds a flat 5-minute series with one decisive final bar.
func quietThenMove(n int, base, lastClose, lastVolume float64) domain.Series {
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
			Open:      base, High: c + 1, Low: c - 1, Close: c, Volume: v,
		})
	}
	return out
}

func TestHybrid_OversoldReversionBuy(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	// A crash bar far below the lower band on elevated volume.
	d, err := s.Decide(&domain.StrategyContext{
		Symbol:  "SBIN",
		Candles: quietThenMove(25, 100, 80, 5000),
		VIX:     15,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.Equal(t, 10, d.Quantity)
	assert.Contains(t, d.Reason, "oversold reversion")
}

func TestHybrid_BreakoutBuyNeedsHeavyVolume(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 120, 5000),
		VIX:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.Contains(t, d.Reason, "band breakout")

	// The same move on average volume is not a breakout.
	s2 := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})
	d, err = s2.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 120, 1500),
		VIX:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
}

func TestHybrid_HighVIXHalvesSize(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 80, 5000),
		VIX:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.Equal(t, 5, d.Quantity)
	assert.Equal(t, 0.5, d.SizeMultiplier)
}

func TestHybrid_HighVIXMultiplierCarriedOnAdaptiveSizing(t *testing.T) {
	// Quantity 0 delegates sizing to the runtime, which must still see the
	// volatility haircut on the decision.
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{})

	d, err := s.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 80, 5000),
		VIX:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.Equal(t, 0, d.Quantity)
	assert.Equal(t, 0.5, d.SizeMultiplier)
}

func TestHybrid_DefaultTuning(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{})
	p := s.Params()

	assert.Equal(t, 30.0, p.RSILower)
	assert.Equal(t, 60.0, p.RSIUpper)
	assert.Equal(t, 1.0, p.StopPct)
	assert.Equal(t, "NIFTY 50", p.Sector)
	assert.Equal(t, 20, p.BollingerWindow)
	assert.Equal(t, 2.0, p.BollingerK)
}

func TestHybrid_StopLossExitsLong(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	d, err := s.Decide(&domain.StrategyContext{
		Candles:    quietThenMove(25, 100, 98.5, 1000),
		Position:   10,
		EntryPrice: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSell, d.Action)
	assert.Equal(t, 10, d.Quantity)
	assert.Equal(t, domain.UrgencyHigh, d.Urgency)
}

func TestHybrid_ReversionTargetAtSMA20(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	// Price recovered above the rolling mean while the stop never hit.
	d, err := s.Decide(&domain.StrategyContext{
		Candles:    quietThenMove(25, 100, 101, 1000),
		Position:   10,
		EntryPrice: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActionSell, d.Action)
	assert.Equal(t, "reversion target reached at sma20", d.Reason)
}

func TestHybrid_EarningsWindowBlocksTrading(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{
		Quantity:     10,
		EarningsDate: "2026-09-03",
	})
	s.SetTimeNow(func() time.Time {
		return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	})

	d, err := s.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 80, 5000),
		VIX:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
	assert.Equal(t, "earnings within two days", d.Reason)
}

func TestHybrid_WeakSectorBlocksEntries(t *testing.T) {
	s := strategy.NewHybridReversionBreakout(strategy.HybridReversionBreakoutParams{Quantity: 10})

	// Benchmark trading below its 20-day average.
	var index domain.Series
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		c := 25000.0 - float64(i)*100
		index = append(index, domain.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c + 50, Low: c - 50, Close: c, Volume: 1e6,
		})
	}

	d, err := s.Decide(&domain.StrategyContext{
		Candles: quietThenMove(25, 100, 80, 5000),
		Index:   index,
		VIX:     15,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionHold, d.Action)
}
