package indicator

import (
	"github.com/vitos/algo_trade_runner/internal/domain"
)

// VWAP returns the intraday volume-weighted average price and the relative
// deviation of close from it. The cumulative sums reset at every calendar
// day boundary, so day 2's VWAP never includes day 1's bars. Bars with zero
// cumulative volume carry a NaN vwap.
func VWAP(candles domain.Series) (vwap, dev []float64) {
	vwap = nanSlice(len(candles))
	dev = nanSlice(len(candles))

	var cumPV, cumVol float64
	var curYear, curDay int
	for i, c := range candles {
		year, day := c.Timestamp.Year(), c.Timestamp.YearDay()
		if i == 0 || year != curYear || day != curDay {
			cumPV, cumVol = 0, 0
			curYear, curDay = year, day
		}

		typical := (c.High + c.Low + c.Close) / 3
		cumPV += typical * c.Volume
		cumVol += c.Volume

		if cumVol == 0 {
			continue
		}
		v := cumPV / cumVol
		vwap[i] = v
		if v != 0 {
			dev[i] = (c.Close - v) / v
		}
	}
	return vwap, dev
}
