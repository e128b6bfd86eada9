package indicator

import (
	"math"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

// ADX returns the Average Directional Index over period. Directional
// movement is taken from high/low diffs (zeroed on wrong-sign moves), the
// DI lines are exponentially smoothed with alpha = 1/period, and ADX is a
// rolling mean of DX. Bars where both DI lines are zero contribute DX = 0
// instead of dividing by zero; warmup NaNs are flattened to 0.
func ADX(candles domain.Series, period int) []float64 {
	n := len(candles)
	out := make([]float64, n)
	if period <= 0 || n < period+1 {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i].Low - candles[i-1].Low
		if up > 0 {
			plusDM[i] = up
		}
		if down < 0 {
			minusDM[i] = -down
		}
	}

	atr := ATR(candles, period)
	alpha := 1.0 / float64(period)
	plusSmooth := ewm(plusDM, alpha)
	minusSmooth := ewm(minusDM, alpha)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		a := atr[i]
		if math.IsNaN(a) || a == 0 {
			continue
		}
		plusDI := 100 * plusSmooth[i] / a
		minusDI := 100 * minusSmooth[i] / a
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = math.Abs(plusDI-minusDI) / sum * 100
	}

	// Rolling mean of DX, recomputed per window: early windows still contain
	// warmup NaNs and must stay NaN until they clear.
	for i := period - 1; i < n; i++ {
		sum := 0.0
		valid := true
		for _, v := range dx[i-period+1 : i+1] {
			if math.IsNaN(v) {
				valid = false
				break
			}
			sum += v
		}
		if valid {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ADXLast returns the latest ADX value, or 0 when there is not enough data.
func ADXLast(candles domain.Series, period int) float64 {
	series := ADX(candles, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
