package usecase

import (
	"sync"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

// OptionLegTracker watches a basket of short (or long) option legs as one
// combined position. Exit is evaluated on the net premium of the basket,
// not per leg, so a strangle is stopped out as a whole.
type OptionLegTracker struct {
	mu sync.Mutex

	stopLossPct float64
	targetPct   float64
	maxHold     time.Duration
	legs        []domain.OptionLeg
	entryTime   time.Time
	logger      *zap.Logger
	timeNow     func() time.Time
}

func NewOptionLegTracker(stopLossPct, targetPct float64, maxHold time.Duration, logger *zap.Logger) *OptionLegTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptionLegTracker{
		stopLossPct: stopLossPct,
		targetPct:   targetPct,
		maxHold:     maxHold,
		logger:      logger,
		timeNow:     time.Now,
	}
}

// AddLegs records the basket at entry. Replaces any previous basket.
func (t *OptionLegTracker) AddLegs(legs []domain.OptionLeg) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.legs = append([]domain.OptionLeg(nil), legs...)
	t.entryTime = t.timeNow()
	t.logger.Info("option legs recorded", zap.Int("legs", len(legs)))
}

// Open reports whether a basket is being tracked.
func (t *OptionLegTracker) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.legs) > 0
}

// Legs returns a copy of the tracked basket.
func (t *OptionLegTracker) Legs() []domain.OptionLeg {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.OptionLeg(nil), t.legs...)
}

// ShouldExit evaluates the basket against current per-symbol prices and
// returns the exit decision with a reason. A leg with no quoted price is
// valued at its entry premium, which makes its PnL contribution zero
// rather than fabricating a move in either direction. A basket whose total
// entry premium is zero never triggers a premium exit; only the time stop
// applies.
func (t *OptionLegTracker) ShouldExit(prices map[string]float64) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.legs) == 0 {
		return false, ""
	}

	if t.maxHold > 0 && t.timeNow().Sub(t.entryTime) >= t.maxHold {
		return true, "max holding time reached"
	}

	var entryPremium, pnl float64
	for _, leg := range t.legs {
		current, ok := prices[leg.Symbol]
		if !ok {
			current = leg.EntryPrice
		}

		qty := float64(leg.Quantity)
		entryPremium += leg.EntryPrice * qty
		if leg.Action == domain.SideSell {
			// Short premium profits when the option cheapens.
			pnl += (leg.EntryPrice - current) * qty
		} else {
			pnl += (current - leg.EntryPrice) * qty
		}
	}

	if entryPremium <= 0 {
		return false, ""
	}

	pnlPct := pnl / entryPremium * 100
	if pnlPct <= -t.stopLossPct {
		return true, "premium stop loss hit"
	}
	if pnlPct >= t.targetPct {
		return true, "premium target reached"
	}
	return false, ""
}

// Clear drops the tracked basket after the legs are closed.
func (t *OptionLegTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.legs = nil
	t.entryTime = time.Time{}
}
