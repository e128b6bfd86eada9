package domain

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// PositionState is the durable per-symbol record written after every
// position mutation. Position is signed: positive long, negative short,
// zero flat. EntryPrice is meaningful only while Position != 0.
type PositionState struct {
	Position    int     `json:"position"`
	EntryPrice  float64 `json:"entry_price"`
	PnL         float64 `json:"pnl"`
	LastUpdated string  `json:"last_updated"`
}

// OptionLeg is one leg of a multi-leg option position.
type OptionLeg struct {
	Symbol     string    `json:"symbol"`
	Action     OrderSide `json:"action"`
	Quantity   int       `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
}
