package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

// PositionManager tracks the single position for one symbol and persists it
// to disk after every mutation, so a restarted strategy process resumes
// with the correct open position instead of re-entering blindly.
//
// One manager owns one symbol. The advisory lock file enforces the
// single-writer invariant: a second manager for the same symbol fails
// construction rather than silently corrupting state.
type PositionManager struct {
	symbol    string
	stateFile string
	lockFile  string
	logger    *zap.Logger
	timeNow   func() time.Time

	position   int
	entryPrice float64
	pnl        float64
}

func NewPositionManager(symbol, stateDir string, logger *zap.Logger) (*PositionManager, error) {
	if symbol == "" {
		return nil, fmt.Errorf("position manager: symbol is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("position manager: create state dir: %w", err)
	}

	pm := &PositionManager{
		symbol:    symbol,
		stateFile: filepath.Join(stateDir, symbol+"_state.json"),
		lockFile:  filepath.Join(stateDir, symbol+"_state.lock"),
		logger:    logger,
		timeNow:   time.Now,
	}

	if err := pm.acquireLock(); err != nil {
		return nil, err
	}
	pm.loadState()
	return pm, nil
}

// acquireLock claims exclusive ownership of the symbol's state. A lock left
// behind by a dead process is reclaimed.
func (pm *PositionManager) acquireLock() error {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(pm.lockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			return werr
		}
		if !os.IsExist(err) {
			return fmt.Errorf("position manager: acquire lock for %s: %w", pm.symbol, err)
		}

		data, rerr := os.ReadFile(pm.lockFile)
		if rerr == nil {
			if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && pidAlive(pid) {
				return fmt.Errorf("position manager: symbol %s is locked by live pid %d", pm.symbol, pid)
			}
		}

		// Stale lock from a dead process; reclaim and retry once.
		pm.logger.Warn("reclaiming stale position lock", zap.String("symbol", pm.symbol))
		if rmErr := os.Remove(pm.lockFile); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("position manager: remove stale lock: %w", rmErr)
		}
	}
	return fmt.Errorf("position manager: could not acquire lock for %s", pm.symbol)
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Close releases the symbol lock. The manager must not be used afterwards.
func (pm *PositionManager) Close() error {
	return os.Remove(pm.lockFile)
}

func (pm *PositionManager) loadState() {
	data, err := os.ReadFile(pm.stateFile)
	if err != nil {
		return // fresh symbol, start flat
	}

	var state domain.PositionState
	if err := json.Unmarshal(data, &state); err != nil {
		pm.logger.Error("failed to load position state", zap.String("symbol", pm.symbol), zap.Error(err))
		return
	}

	pm.position = state.Position
	pm.entryPrice = state.EntryPrice
	pm.pnl = state.PnL
	pm.logger.Info("loaded position state",
		zap.String("symbol", pm.symbol),
		zap.Int("position", pm.position),
		zap.Float64("entry_price", pm.entryPrice))
}

func (pm *PositionManager) saveState() {
	state := domain.PositionState{
		Position:    pm.position,
		EntryPrice:  pm.entryPrice,
		PnL:         pm.pnl,
		LastUpdated: pm.timeNow().Format("2006-01-02 15:04:05"),
	}

	data, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		pm.logger.Error("failed to marshal position state", zap.String("symbol", pm.symbol), zap.Error(err))
		return
	}
	if err := os.WriteFile(pm.stateFile, data, 0o644); err != nil {
		pm.logger.Error("failed to save position state", zap.String("symbol", pm.symbol), zap.Error(err))
	}
}

// UpdatePosition applies a fill. BUY increases the signed position, SELL
// decreases it. Reducing a position realizes PnL on the closed portion; a
// fill that crosses through zero realizes the closed part and opens the
// residual as a fresh position at the fill price. Entry price resets to 0
// exactly when the position returns to flat.
func (pm *PositionManager) UpdatePosition(qty int, price float64, side domain.OrderSide) {
	if qty <= 0 {
		return
	}

	delta := qty
	if side == domain.SideSell {
		delta = -qty
	}

	oldPos := pm.position
	newPos := oldPos + delta

	if oldPos != 0 && (oldPos > 0) != (delta > 0) {
		closed := qty
		if abs(oldPos) < closed {
			closed = abs(oldPos)
		}

		var realized float64
		if oldPos > 0 {
			realized = (price - pm.entryPrice) * float64(closed)
		} else {
			realized = (pm.entryPrice - price) * float64(closed)
		}
		pm.pnl += realized
		pm.logger.Info("realized pnl",
			zap.String("symbol", pm.symbol),
			zap.Int("closed_qty", closed),
			zap.Float64("pnl", realized))
	}

	switch {
	case newPos == 0:
		pm.entryPrice = 0
	case oldPos == 0 || (oldPos > 0) != (newPos > 0):
		// Fresh entry, or a flip through zero: the residual is a new
		// position at this fill price.
		pm.entryPrice = price
	}

	pm.position = newPos
	pm.logger.Info("position updated",
		zap.String("symbol", pm.symbol),
		zap.Int("position", pm.position),
		zap.Float64("entry_price", pm.entryPrice))
	pm.saveState()
}

func (pm *PositionManager) HasPosition() bool {
	return pm.position != 0
}

func (pm *PositionManager) Position() int {
	return pm.position
}

func (pm *PositionManager) EntryPrice() float64 {
	return pm.entryPrice
}

func (pm *PositionManager) RealizedPnL() float64 {
	return pm.pnl
}

// GetPnL returns the unrealized PnL at the given price; 0 when flat.
func (pm *PositionManager) GetPnL(currentPrice float64) float64 {
	if pm.position == 0 {
		return 0
	}
	if pm.position > 0 {
		return (currentPrice - pm.entryPrice) * float64(pm.position)
	}
	return (pm.entryPrice - currentPrice) * float64(abs(pm.position))
}

// RiskAdjustedQuantity sizes a position from volatility:
// floor((capital * riskPct/100) / (volatility * 2)), capped at
// floor(capital/price). Non-positive volatility or price yields 0 so the
// caller skips the trade instead of dividing by zero.
func (pm *PositionManager) RiskAdjustedQuantity(capital, riskPct, volatility, price float64) int {
	if volatility <= 0 || price <= 0 {
		pm.logger.Warn("invalid volatility or price for sizing",
			zap.String("symbol", pm.symbol),
			zap.Float64("volatility", volatility),
			zap.Float64("price", price))
		return 0
	}

	riskAmount := capital * riskPct / 100
	stopDistance := volatility * 2.0
	qty := riskAmount / stopDistance

	maxQty := capital / price
	if qty > maxQty {
		qty = maxQty
	}
	if qty < 0 {
		return 0
	}
	return int(math.Floor(qty))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
