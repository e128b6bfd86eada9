package indicator

import "math"

// SMA returns the simple moving average of values. Entries before the first
// full window are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average with span smoothing
// (alpha = 2/(period+1)), seeded from the first value.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out[i] = ema
	}
	return out
}

// RollingStd returns the rolling sample standard deviation over period.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 1 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		variance := 0.0
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period-1))
	}
	return out
}

// ROC returns the fractional rate of change over period:
// (v[i] - v[i-period]) / v[i-period].
func ROC(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	for i := period; i < len(values); i++ {
		prev := values[i-period]
		if prev == 0 {
			continue
		}
		out[i] = (values[i] - prev) / prev
	}
	return out
}

// Last returns the final value of a series, or fallback when the series is
// empty or ends in NaN.
func Last(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	v := values[len(values)-1]
	if math.IsNaN(v) {
		return fallback
	}
	return v
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// ewm is an exponentially weighted mean with explicit alpha, seeded from the
// first value. Used by the directional index smoothing.
func ewm(values []float64, alpha float64) []float64 {
	out := nanSlice(len(values))
	if len(values) == 0 {
		return out
	}

	acc := values[0]
	out[0] = acc
	for i := 1; i < len(values); i++ {
		acc = alpha*values[i] + (1-alpha)*acc
		out[i] = acc
	}
	return out
}
