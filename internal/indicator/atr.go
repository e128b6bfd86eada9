package indicator

import (
	"math"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

// TrueRange returns the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar uses high-low since it has no previous close.
func TrueRange(candles domain.Series) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prevClose := candles[i-1].Close
			tr = math.Max(tr, math.Abs(c.High-prevClose))
			tr = math.Max(tr, math.Abs(c.Low-prevClose))
		}
		out[i] = tr
	}
	return out
}

// ATR returns the Average True Range series: a simple rolling mean of the
// true range over period.
func ATR(candles domain.Series, period int) []float64 {
	return SMA(TrueRange(candles), period)
}

// ATRLast returns the latest ATR value, or 0 when there is not enough data.
func ATRLast(candles domain.Series, period int) float64 {
	return Last(ATR(candles, period), 0)
}
