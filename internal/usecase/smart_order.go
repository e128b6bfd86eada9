package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/vitos/algo_trade_runner/internal/domain"
	"go.uber.org/zap"
)

// OrderStatus classifies the outcome of a smart order attempt.
type OrderStatus string

const (
	// StatusSubmitted means the gateway accepted the order.
	StatusSubmitted OrderStatus = "submitted"
	// StatusFailed means the order was rejected or never reached the gateway.
	StatusFailed OrderStatus = "failed"
	// StatusAmbiguous means the gateway returned HTTP 200 with an
	// unparseable body. The order may or may not be live; callers should
	// reconcile against the order book before retrying.
	StatusAmbiguous OrderStatus = "ambiguous"
)

type OrderResult struct {
	Status   OrderStatus
	OrderID  string
	Message  string
	ClientID string
}

// SmartOrder translates a strategy decision into a concrete gateway order,
// picking MARKET or LIMIT from the decision's urgency and limit price.
type SmartOrder struct {
	gateway domain.Gateway
	logger  *zap.Logger
}

func NewSmartOrder(gateway domain.Gateway, logger *zap.Logger) *SmartOrder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SmartOrder{gateway: gateway, logger: logger}
}

// PlaceRequest carries everything needed to route one order.
type PlaceRequest struct {
	Strategy     string
	Symbol       string
	Exchange     string
	Product      string
	Action       domain.OrderSide
	Quantity     int
	PositionSize int
	LimitPrice   float64
	Urgency      domain.Urgency
}

// Place routes the order. High urgency always goes to market. Low urgency
// without a limit price also goes to market, since a resting order with no
// price makes no sense; the downgrade is logged so the policy is visible.
func (s *SmartOrder) Place(ctx context.Context, req PlaceRequest) OrderResult {
	if req.Quantity <= 0 {
		return OrderResult{Status: StatusFailed, Message: "quantity must be positive"}
	}

	priceType, price := s.resolvePriceType(req)
	clientID := uuid.NewString()

	s.logger.Info("placing order",
		zap.String("strategy", req.Strategy),
		zap.String("symbol", req.Symbol),
		zap.String("action", string(req.Action)),
		zap.Int("quantity", req.Quantity),
		zap.String("price_type", priceType),
		zap.Float64("price", price),
		zap.String("client_order_id", clientID))

	resp, err := s.gateway.PlaceSmartOrder(ctx, domain.SmartOrderRequest{
		Strategy:      req.Strategy,
		Symbol:        req.Symbol,
		Action:        req.Action,
		Exchange:      req.Exchange,
		PriceType:     priceType,
		Product:       req.Product,
		Quantity:      req.Quantity,
		PositionSize:  req.PositionSize,
		Price:         price,
		ClientOrderID: clientID,
	})
	if err != nil {
		s.logger.Error("order placement failed",
			zap.String("symbol", req.Symbol),
			zap.String("client_order_id", clientID),
			zap.Error(err))
		return OrderResult{Status: StatusFailed, Message: err.Error(), ClientID: clientID}
	}

	if resp.Ambiguous {
		s.logger.Warn("order outcome ambiguous, reconcile against order book",
			zap.String("symbol", req.Symbol),
			zap.String("client_order_id", clientID))
		return OrderResult{Status: StatusAmbiguous, Message: resp.Message, ClientID: clientID}
	}

	if resp.Status != "success" {
		s.logger.Error("order rejected",
			zap.String("symbol", req.Symbol),
			zap.String("message", resp.Message))
		return OrderResult{Status: StatusFailed, Message: resp.Message, ClientID: clientID}
	}

	s.logger.Info("order submitted",
		zap.String("symbol", req.Symbol),
		zap.String("order_id", resp.OrderID),
		zap.String("client_order_id", clientID))
	return OrderResult{Status: StatusSubmitted, OrderID: resp.OrderID, ClientID: clientID}
}

func (s *SmartOrder) resolvePriceType(req PlaceRequest) (string, float64) {
	switch {
	case req.Urgency == domain.UrgencyHigh:
		return "MARKET", 0
	case req.LimitPrice > 0:
		return "LIMIT", req.LimitPrice
	case req.Urgency == domain.UrgencyLow:
		s.logger.Warn("low urgency order without limit price, sending market",
			zap.String("symbol", req.Symbol))
		return "MARKET", 0
	default:
		return "MARKET", 0
	}
}
