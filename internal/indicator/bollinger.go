package indicator

// BollingerBands returns the middle (SMA), upper and lower bands:
// SMA(window) +/- k * rolling std.
func BollingerBands(values []float64, window int, k float64) (mid, upper, lower []float64) {
	mid = SMA(values, window)
	std := RollingStd(values, window)

	upper = nanSlice(len(values))
	lower = nanSlice(len(values))
	for i := range values {
		m, s := mid[i], std[i]
		if m != m || s != s {
			continue
		}
		upper[i] = m + k*s
		lower[i] = m - k*s
	}
	return mid, upper, lower
}
