package watchdog

import (
	"strings"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
)

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
	"sun": time.Sunday,
}

// ShouldRunNow reports whether the entry's schedule window covers the given
// instant. Entries without an explicit schedule default to regular NSE
// hours on weekdays. An unscheduled entry is never "due".
func ShouldRunNow(cfg *domain.StrategyConfig, now time.Time) bool {
	if !cfg.IsScheduled {
		return false
	}

	days := cfg.ScheduleDays
	if len(days) == 0 {
		days = []string{"mon", "tue", "wed", "thu", "fri"}
	}
	dayOK := false
	for _, d := range days {
		name := strings.ToLower(strings.TrimSpace(d))
		if len(name) > 3 {
			name = name[:3]
		}
		if wd, ok := weekdayNames[name]; ok && wd == now.Weekday() {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false
	}

	start := parseClock(cfg.ScheduleStart, 9*60+15)
	stop := parseClock(cfg.ScheduleStop, 15*60+30)
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= start && minutes <= stop
}

// parseClock turns "HH:MM" into minutes since midnight, falling back to the
// given default on malformed input.
func parseClock(s string, fallback int) int {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return t.Hour()*60 + t.Minute()
}
