package execution

import (
	"time"

	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
)

// Trigger is one positive trigger decision for a resting order.
type Trigger struct {
	Order       *orderInfra.Order
	MarketPrice float64
	LimitPrice  float64
	At          time.Time
}

// Request is the hand-off message published for a triggered order.
type Request struct {
	RequestID   string          `json:"request_id"`
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Side        orderInfra.Side `json:"side"`
	Quantity    string          `json:"quantity"`
	LimitPrice  float64         `json:"limit_price"`
	MarketPrice float64         `json:"market_price"`
	TriggeredAt time.Time       `json:"triggered_at"`
}

// NewRequest builds the hand-off message for trigger under requestID.
func NewRequest(requestID string, trigger Trigger) Request {
	return Request{
		RequestID:   requestID,
		OrderID:     trigger.Order.ID,
		UserID:      trigger.Order.UserID,
		Symbol:      trigger.Order.Symbol,
		Side:        trigger.Order.Side,
		Quantity:    trigger.Order.Quantity,
		LimitPrice:  trigger.LimitPrice,
		MarketPrice: trigger.MarketPrice,
		TriggeredAt: trigger.At.UTC(),
	}
}
