package usecase_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"github.com/vitos/algo_trade_runner/internal/usecase"
	"go.uber.org/zap"
)

func newPM(t *testing.T) (*usecase.PositionManager, string) {
	t.Helper()
	dir := t.TempDir()
	pm, err := usecase.NewPositionManager("RELIANCE", dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { pm.Close() })
	return pm, dir
}

func TestPositionManager_BuyThenClose(t *testing.T) {
	pm, _ := newPM(t)

	pm.UpdatePosition(10, 100.0, domain.SideBuy)
	assert.Equal(t, 10, pm.Position())
	assert.Equal(t, 100.0, pm.EntryPrice())
	assert.True(t, pm.HasPosition())

	assert.InDelta(t, 50.0, pm.GetPnL(105.0), 1e-9)

	pm.UpdatePosition(10, 110.0, domain.SideSell)
	assert.Equal(t, 0, pm.Position())
	assert.Equal(t, 0.0, pm.EntryPrice())
	assert.InDelta(t, 100.0, pm.RealizedPnL(), 1e-9)
	assert.Equal(t, 0.0, pm.GetPnL(120.0))
}

func TestPositionManager_ShortSide(t *testing.T) {
	pm, _ := newPM(t)

	pm.UpdatePosition(5, 200.0, domain.SideSell)
	assert.Equal(t, -5, pm.Position())
	assert.Equal(t, 200.0, pm.EntryPrice())
	assert.InDelta(t, 25.0, pm.GetPnL(195.0), 1e-9)

	pm.UpdatePosition(5, 190.0, domain.SideBuy)
	assert.Equal(t, 0, pm.Position())
	assert.InDelta(t, 50.0, pm.RealizedPnL(), 1e-9)
}

func TestPositionManager_FlipThroughZero(t *testing.T) {
	pm, _ := newPM(t)

	pm.UpdatePosition(10, 100.0, domain.SideBuy)
	pm.UpdatePosition(15, 110.0, domain.SideSell)

	// 10 closed at +10 each, residual short 5 entered at 110.
	assert.Equal(t, -5, pm.Position())
	assert.Equal(t, 110.0, pm.EntryPrice())
	assert.InDelta(t, 100.0, pm.RealizedPnL(), 1e-9)
}

func TestPositionManager_PyramidKeepsEntry(t *testing.T) {
	pm, _ := newPM(t)

	pm.UpdatePosition(10, 100.0, domain.SideBuy)
	pm.UpdatePosition(10, 120.0, domain.SideBuy)

	assert.Equal(t, 20, pm.Position())
	assert.Equal(t, 100.0, pm.EntryPrice())
}

func TestPositionManager_IgnoresNonPositiveQuantity(t *testing.T) {
	pm, _ := newPM(t)

	pm.UpdatePosition(0, 100.0, domain.SideBuy)
	pm.UpdatePosition(-5, 100.0, domain.SideBuy)
	assert.Equal(t, 0, pm.Position())
}

func TestPositionManager_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	pm, err := usecase.NewPositionManager("TCS", dir, zap.NewNop())
	require.NoError(t, err)
	pm.UpdatePosition(7, 3500.0, domain.SideBuy)
	require.NoError(t, pm.Close())

	// State file uses the documented shape.
	data, err := os.ReadFile(filepath.Join(dir, "TCS_state.json"))
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "position")
	assert.Contains(t, raw, "entry_price")
	assert.Contains(t, raw, "pnl")
	assert.Contains(t, raw, "last_updated")

	pm2, err := usecase.NewPositionManager("TCS", dir, zap.NewNop())
	require.NoError(t, err)
	defer pm2.Close()

	assert.Equal(t, 7, pm2.Position())
	assert.Equal(t, 3500.0, pm2.EntryPrice())
}

func TestPositionManager_SecondWriterRejected(t *testing.T) {
	dir := t.TempDir()

	pm, err := usecase.NewPositionManager("INFY", dir, zap.NewNop())
	require.NoError(t, err)
	defer pm.Close()

	_, err = usecase.NewPositionManager("INFY", dir, zap.NewNop())
	assert.Error(t, err)
}

func TestPositionManager_StaleLockReclaimed(t *testing.T) {
	dir := t.TempDir()

	// A dead pid in the lock file must not block a new manager.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "INFY_state.lock"), []byte("999999"), 0o644))

	pm, err := usecase.NewPositionManager("INFY", dir, zap.NewNop())
	require.NoError(t, err)
	pm.Close()
}

func TestRiskAdjustedQuantity(t *testing.T) {
	pm, _ := newPM(t)

	// risk = 100000 * 1% = 1000; stop distance = 25*2 = 50 -> 20 shares.
	assert.Equal(t, 20, pm.RiskAdjustedQuantity(100000, 1.0, 25.0, 500.0))

	// Capital cap: floor(100000/9000) = 11 < uncapped 50.
	assert.Equal(t, 11, pm.RiskAdjustedQuantity(100000, 1.0, 10.0, 9000.0))

	assert.Equal(t, 0, pm.RiskAdjustedQuantity(100000, 1.0, 0, 500.0))
	assert.Equal(t, 0, pm.RiskAdjustedQuantity(100000, 1.0, 25.0, 0))
}
