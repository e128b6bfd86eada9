package indicator

// RSI returns the Relative Strength Index of closes over period, computed
// from rolling means of gains and losses. A window with no movement at all
// (zero average gain and loss) yields a neutral 50 rather than NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	gainAvg := SMA(gains[1:], period)
	lossAvg := SMA(losses[1:], period)

	for i := range gainAvg {
		g, l := gainAvg[i], lossAvg[i]
		if g != g || l != l { // NaN warmup
			continue
		}

		var rsi float64
		switch {
		case g == 0 && l == 0:
			rsi = 50
		case l == 0:
			rsi = 100
		default:
			rs := g / l
			rsi = 100 - 100/(1+rs)
		}
		out[i+1] = rsi
	}
	return out
}
