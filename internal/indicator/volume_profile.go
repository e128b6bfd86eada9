package indicator

import (
	"github.com/vitos/algo_trade_runner/internal/domain"
)

// VolumeProfilePOC buckets closes into nBins equal-width bins spanning
// [min(low), max(high)], sums volume per bin and returns the point of
// control: the midpoint of the highest-volume bin plus its volume.
// Degenerate input (no range, no candles) returns (0, 0).
func VolumeProfilePOC(candles domain.Series, nBins int) (pocPrice, pocVolume float64) {
	if len(candles) == 0 || nBins < 2 {
		return 0, 0
	}

	priceMin := candles[0].Low
	priceMax := candles[0].High
	for _, c := range candles {
		if c.Low < priceMin {
			priceMin = c.Low
		}
		if c.High > priceMax {
			priceMax = c.High
		}
	}
	if priceMin == priceMax {
		return 0, 0
	}

	width := (priceMax - priceMin) / float64(nBins-1)
	volumes := make([]float64, nBins-1)
	for _, c := range candles {
		bin := int((c.Close - priceMin) / width)
		if bin == nBins-1 && c.Close == priceMax {
			bin = nBins - 2 // top edge belongs to the last bin
		}
		if bin < 0 || bin > nBins-2 {
			continue
		}
		volumes[bin] += c.Volume
	}

	pocBin := 0
	for i, v := range volumes {
		if v > pocVolume {
			pocVolume = v
			pocBin = i
		}
	}
	if pocVolume == 0 {
		return 0, 0
	}

	pocPrice = priceMin + float64(pocBin)*width + width/2
	return pocPrice, pocVolume
}

// RelativeStrength returns the latest difference between the symbol's and
// the index's rate of change over window. Missing or short index data
// yields 0.
func RelativeStrength(candles, index domain.Series, window int) float64 {
	if len(candles) <= window || len(index) <= window {
		return 0
	}
	stock := Last(ROC(candles.Closes(), window), 0)
	idx := Last(ROC(index.Closes(), window), 0)
	return stock - idx
}
