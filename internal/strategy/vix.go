// Package strategy holds the concrete trading strategies. Each one keeps
// its per-position state (trailing stops, armed signals) between cycles and
// is driven by a single runtime goroutine.
package strategy

// VIXVolatilityMultiplier maps the India VIX level to a position-size
// multiplier and a VWAP deviation threshold. High volatility halves size
// and tightens the overextension band; calm regimes widen it.
func VIXVolatilityMultiplier(vix float64) (sizeMultiplier, devThreshold float64) {
	switch {
	case vix > 25:
		return 0.5, 0.012
	case vix > 20:
		return 1.0, 0.025
	case vix < 12:
		return 1.0, 0.04
	default:
		return 1.0, 0.03
	}
}

// scaleQuantity applies a size multiplier with a floor of one unit.
// A base of zero is passed through, meaning adaptive sizing downstream.
func scaleQuantity(base int, multiplier float64) int {
	if base <= 0 {
		return 0
	}
	scaled := int(float64(base) * multiplier)
	if scaled < 1 {
		return 1
	}
	return scaled
}
