package usecase

import (
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

// SignalDebouncer turns level conditions into edge events so a condition
// that stays true across polling cycles fires exactly once.
type SignalDebouncer struct {
	last map[string]bool
}

func NewSignalDebouncer() *SignalDebouncer {
	return &SignalDebouncer{last: make(map[string]bool)}
}

// Edge returns true only on the cycle where cond transitions false to true.
func (d *SignalDebouncer) Edge(key string, cond bool) bool {
	prev := d.last[key]
	d.last[key] = cond
	return cond && !prev
}

// Reset clears the remembered state for a key, so the next true reading
// fires again. Used after an exit so re-entry conditions rearm.
func (d *SignalDebouncer) Reset(key string) {
	delete(d.last, key)
}

// CrossAbove reports a strict upward crossing of threshold between two
// consecutive readings.
func CrossAbove(prev, curr, threshold float64) bool {
	return prev <= threshold && curr > threshold
}

// CrossBelow reports a strict downward crossing of threshold.
func CrossBelow(prev, curr, threshold float64) bool {
	return prev >= threshold && curr < threshold
}

// TradeLimiter caps trade frequency: a daily count, an hourly count and a
// minimum gap between consecutive entries. Counters roll over at local
// midnight.
type TradeLimiter struct {
	maxPerDay  int
	maxPerHour int
	cooldown   time.Duration
	logger     *zap.Logger
	timeNow    func() time.Time

	day       time.Time
	today     int
	hourMarks []time.Time
	lastTrade time.Time
}

func NewTradeLimiter(maxPerDay, maxPerHour int, cooldown time.Duration, logger *zap.Logger) *TradeLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeLimiter{
		maxPerDay:  maxPerDay,
		maxPerHour: maxPerHour,
		cooldown:   cooldown,
		logger:     logger,
		timeNow:    time.Now,
	}
}

// Allow reports whether a new trade may be opened now.
func (l *TradeLimiter) Allow() bool {
	now := l.timeNow()
	l.rollover(now)

	if l.maxPerDay > 0 && l.today >= l.maxPerDay {
		l.logger.Warn("daily trade limit reached", zap.Int("limit", l.maxPerDay))
		return false
	}
	if l.maxPerHour > 0 && l.countLastHour(now) >= l.maxPerHour {
		l.logger.Warn("hourly trade limit reached", zap.Int("limit", l.maxPerHour))
		return false
	}
	if l.cooldown > 0 && !l.lastTrade.IsZero() && now.Sub(l.lastTrade) < l.cooldown {
		l.logger.Info("trade cooldown active",
			zap.Duration("remaining", l.cooldown-now.Sub(l.lastTrade)))
		return false
	}
	return true
}

// Record registers a trade that was just placed.
func (l *TradeLimiter) Record() {
	now := l.timeNow()
	l.rollover(now)
	l.today++
	l.hourMarks = append(l.hourMarks, now)
	l.lastTrade = now
}

func (l *TradeLimiter) rollover(now time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !day.Equal(l.day) {
		l.day = day
		l.today = 0
		l.hourMarks = nil
	}
}

func (l *TradeLimiter) countLastHour(now time.Time) int {
	cutoff := now.Add(-time.Hour)
	kept := l.hourMarks[:0]
	for _, ts := range l.hourMarks {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.hourMarks = kept
	return len(kept)
}

// DataFreshnessGuard rejects candle series that look stale: too many
// identical trailing closes, or zero volume across the tail, both of which
// indicate a dead feed rather than a quiet market.
type DataFreshnessGuard struct {
	maxSameClose  int
	requireVolume bool
	logger        *zap.Logger
}

func NewDataFreshnessGuard(maxSameClose int, requireVolume bool, logger *zap.Logger) *DataFreshnessGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSameClose <= 0 {
		maxSameClose = 5
	}
	return &DataFreshnessGuard{maxSameClose: maxSameClose, requireVolume: requireVolume, logger: logger}
}

// Fresh reports whether the series looks live. The reason explains a
// rejection.
func (g *DataFreshnessGuard) Fresh(candles domain.Series) (bool, string) {
	n := len(candles)
	if n == 0 {
		return false, "no candles"
	}

	if n > g.maxSameClose {
		same := 1
		last := candles[n-1].Close
		for i := n - 2; i >= 0 && candles[i].Close == last; i-- {
			same++
		}
		if same > g.maxSameClose {
			g.logger.Warn("stale feed: repeated closes", zap.Int("repeats", same))
			return false, "repeated identical closes"
		}
	}

	if g.requireVolume {
		tail := g.maxSameClose
		if tail > n {
			tail = n
		}
		var vol float64
		for _, c := range candles[n-tail:] {
			vol += c.Volume
		}
		if vol == 0 {
			g.logger.Warn("stale feed: zero volume tail", zap.Int("tail", tail))
			return false, "zero volume in recent candles"
		}
	}

	return true, ""
}
