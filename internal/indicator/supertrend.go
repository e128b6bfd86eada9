package indicator

import (
	"math"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

// SuperTrend computes the SuperTrend line and trend direction (+1 up,
// -1 down) using a stateful left-to-right scan. The final upper band only
// moves down (or resets when the previous close broke above it), the final
// lower band only moves up; direction flips when close crosses the opposite
// final band. This recurrence cannot be expressed as a rolling window.
func SuperTrend(candles domain.Series, period int, multiplier float64) (line []float64, direction []int) {
	n := len(candles)
	line = make([]float64, n)
	direction = make([]int, n)
	if n == 0 {
		return line, direction
	}

	atr := ATR(candles, period)
	direction[0] = 1

	var finalUpper, finalLower float64
	for i := 1; i < n; i++ {
		a := atr[i]
		if math.IsNaN(a) {
			a = 0
		}
		hl2 := (candles[i].High + candles[i].Low) / 2
		basicUpper := hl2 + multiplier*a
		basicLower := hl2 - multiplier*a
		prevClose := candles[i-1].Close

		if basicUpper < finalUpper || prevClose > finalUpper {
			finalUpper = basicUpper
		}
		if basicLower > finalLower || prevClose < finalLower {
			finalLower = basicLower
		}

		if direction[i-1] == 1 {
			if candles[i].Close <= finalLower {
				direction[i] = -1
				line[i] = finalUpper
			} else {
				direction[i] = 1
				line[i] = finalLower
			}
		} else {
			if candles[i].Close >= finalUpper {
				direction[i] = 1
				line[i] = finalLower
			} else {
				direction[i] = -1
				line[i] = finalUpper
			}
		}
	}
	return line, direction
}
