package domain

// Action is what a strategy wants done this cycle.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Urgency is the execution aggressiveness hint for order-type selection.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// Decision is the outcome of one strategy evaluation.
// Quantity 0 means "use adaptive sizing"; Price 0 means market.
// SizeMultiplier scales a runtime-sized quantity; 0 means unscaled. A
// non-zero Quantity already has the multiplier baked in.
type Decision struct {
	Action         Action
	Quantity       int
	Price          float64
	Urgency        Urgency
	SizeMultiplier float64
	Reason         string
}

// DataSpec declares what market data a strategy needs per cycle.
type DataSpec struct {
	LookbackDays int
	MinCandles   int
	// IndexSymbol is the sector benchmark whose daily candles the strategy
	// wants in StrategyContext.Index; empty means none.
	IndexSymbol string
	NeedVIX     bool
}

// StrategyContext is the snapshot handed to Decide each cycle.
type StrategyContext struct {
	Symbol     string
	Candles    Series
	Index      Series
	Position   int
	EntryPrice float64
	LTP        float64
	VIX        float64
}

// Strategy turns market context into a trading decision. Implementations
// may keep per-position state (trailing stops) between cycles; they run in
// a single goroutine and need no locking.
type Strategy interface {
	Name() string
	Spec() DataSpec
	Decide(ctx *StrategyContext) (Decision, error)
}
