package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/usecase"
	"go.uber.org/zap"
)

func strangleLegs() []domain.OptionLeg {
	return []domain.OptionLeg{
		{Symbol: "NIFTY25SEP24000CE", Action: domain.SideSell, Quantity: 50, EntryPrice: 100},
		{Symbol: "NIFTY25SEP23000PE", Action: domain.SideSell, Quantity: 50, EntryPrice: 80},
	}
}

func TestOptionLegTracker_ShortPremiumTarget(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 0, zap.NewNop())
	tr.AddLegs(strangleLegs())
	assert.True(t, tr.Open())

	// Entry premium 9000; both legs halve -> pnl +4500 = +50%.
	exit, reason := tr.ShouldExit(map[string]float64{
		"NIFTY25SEP24000CE": 50,
		"NIFTY25SEP23000PE": 40,
	})
	assert.True(t, exit)
	assert.Equal(t, "premium target reached", reason)
}

func TestOptionLegTracker_ShortPremiumStop(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 0, zap.NewNop())
	tr.AddLegs(strangleLegs())

	// Call blows out: pnl = (100-180)*50 + (80-80)*50 = -4000 on 9000 entry.
	exit, reason := tr.ShouldExit(map[string]float64{
		"NIFTY25SEP24000CE": 180,
		"NIFTY25SEP23000PE": 80,
	})
	assert.True(t, exit)
	assert.Equal(t, "premium stop loss hit", reason)
}

func TestOptionLegTracker_MissingPriceValuedAtEntry(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 0, zap.NewNop())
	tr.AddLegs(strangleLegs())

	// Put has no quote, so only the call contributes: (100-120)*50 = -1000,
	// -11% of 9000, inside both bands.
	exit, _ := tr.ShouldExit(map[string]float64{"NIFTY25SEP24000CE": 120})
	assert.False(t, exit)
}

func TestOptionLegTracker_TimeStop(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 2*time.Hour, zap.NewNop())

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := base
	tr.SetTimeNow(func() time.Time { return now })

	tr.AddLegs(strangleLegs())

	exit, _ := tr.ShouldExit(nil)
	assert.False(t, exit)

	now = base.Add(2 * time.Hour)
	exit, reason := tr.ShouldExit(nil)
	assert.True(t, exit)
	assert.Equal(t, "max holding time reached", reason)
}

func TestOptionLegTracker_ZeroPremiumNeverPremiumExits(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 0, zap.NewNop())
	tr.AddLegs([]domain.OptionLeg{
		{Symbol: "X", Action: domain.SideSell, Quantity: 50, EntryPrice: 0},
	})

	exit, _ := tr.ShouldExit(map[string]float64{"X": 500})
	assert.False(t, exit)
}

func TestOptionLegTracker_Clear(t *testing.T) {
	tr := usecase.NewOptionLegTracker(30, 50, 0, zap.NewNop())
	tr.AddLegs(strangleLegs())
	tr.Clear()

	assert.False(t, tr.Open())
	exit, _ := tr.ShouldExit(nil)
	assert.False(t, exit)
}
