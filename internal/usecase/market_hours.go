package usecase

import (
	"strings"
	"time"
)

// istLocation resolves Asia/Kolkata, falling back to a fixed UTC+5:30 zone
// on systems without tzdata. IST has no daylight saving, so the fallback is
// always correct.
func istLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

type marketWindow struct {
	openHour, openMin   int
	closeHour, closeMin int
}

var marketWindows = map[string]marketWindow{
	"NSE": {9, 15, 15, 30},
	"NFO": {9, 15, 15, 30},
	"BSE": {9, 15, 15, 30},
	"MCX": {9, 0, 23, 30},
}

// IsMarketOpen reports whether the exchange is inside its regular session
// at the given instant. Weekends are always closed. Unknown exchanges use
// the NSE window. Exchange segments like NSE_INDEX map to their parent.
func IsMarketOpen(exchange string, now time.Time) bool {
	ist := now.In(istLocation())

	switch ist.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	key := exchange
	if i := strings.IndexByte(key, '_'); i > 0 {
		key = key[:i]
	}
	win, ok := marketWindows[strings.ToUpper(key)]
	if !ok {
		win = marketWindows["NSE"]
	}

	minutes := ist.Hour()*60 + ist.Minute()
	open := win.openHour*60 + win.openMin
	closeAt := win.closeHour*60 + win.closeMin
	return minutes >= open && minutes <= closeAt
}

// IsLunchBreak reports the low-liquidity midday window used by strategies
// that avoid entries between 12:00 and 13:00 IST.
func IsLunchBreak(now time.Time) bool {
	ist := now.In(istLocation())
	return ist.Hour() == 12
}
