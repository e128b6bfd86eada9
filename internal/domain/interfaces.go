package domain

import (
	"context"
	"time"
)

// Gateway is the broker gateway surface the trading core depends on.
type Gateway interface {
	History(ctx context.Context, symbol, exchange, interval string, start, end time.Time) (Series, error)
	Quote(ctx context.Context, symbol, exchange string) (*Quote, error)
	PlaceSmartOrder(ctx context.Context, req SmartOrderRequest) (*OrderResponse, error)
	PositionBook(ctx context.Context) ([]BrokerPosition, error)
	OrderBook(ctx context.Context) ([]BrokerOrder, error)
}

// SmartOrderRequest is the payload for the gateway's combined smart-order
// endpoint. PositionSize is the target net position after this order so the
// gateway can reconcile the delta.
type SmartOrderRequest struct {
	Strategy      string    `json:"strategy"`
	Symbol        string    `json:"symbol"`
	Action        OrderSide `json:"action"`
	Exchange      string    `json:"exchange"`
	PriceType     string    `json:"pricetype"`
	Product       string    `json:"product"`
	Quantity      int       `json:"quantity"`
	PositionSize  int       `json:"position_size"`
	Price         float64   `json:"price"`
	TriggerPrice  float64   `json:"trigger_price"`
	ClientOrderID string    `json:"client_order_id,omitempty"`
}

// OrderResponse is the gateway's reply to an order submission. Ambiguous is
// set when the gateway answered HTTP 200 with an unparseable body: the order
// was submitted but its acceptance is unconfirmed.
type OrderResponse struct {
	Status    string `json:"status"`
	OrderID   string `json:"orderid"`
	Message   string `json:"message"`
	Ambiguous bool   `json:"-"`
}

// BrokerPosition is one row of the gateway position book.
type BrokerPosition struct {
	Symbol   string  `json:"symbol"`
	Exchange string  `json:"exchange"`
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	AvgPrice float64 `json:"average_price"`
}

// BrokerOrder is one row of the gateway order book.
type BrokerOrder struct {
	OrderID  string  `json:"orderid"`
	Symbol   string  `json:"symbol"`
	Action   string  `json:"action"`
	Status   string  `json:"order_status"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// HistoryStore is the durable candle database used as a backfill target and
// as the fallback source when the live history API returns nothing.
type HistoryStore interface {
	SaveCandles(ctx context.Context, symbol, exchange, interval string, candles Series) error
	GetCandles(ctx context.Context, symbol, exchange, interval string, start, end time.Time) (Series, error)
}

// Notifier delivers out-of-band alerts. Implementations must not fail the
// caller when delivery is unavailable.
type Notifier interface {
	Send(ctx context.Context, message string) error
}
