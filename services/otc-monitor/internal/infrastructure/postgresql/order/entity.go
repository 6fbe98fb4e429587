package order

import (
	"strings"
	"time"
)

// Status represents the lifecycle status of an order.
type Status string

const (
	// StatusNew is an accepted order with nothing filled yet.
	StatusNew Status = "new"
	// StatusPartiallyFilled is an order with part of its quantity filled.
	StatusPartiallyFilled Status = "pfilled"
	// StatusFilled is a completely filled order.
	StatusFilled Status = "filled"
	// StatusCanceled is an order withdrawn by the user or the system.
	StatusCanceled Status = "canceled"
)

// IsOpen reports whether an order with this status may still fill.
func (s Status) IsOpen() bool {
	return s == StatusNew || s == StatusPartiallyFilled
}

// Side is the direction of an order.
type Side string

const (
	// SideBuy buys the base asset.
	SideBuy Side = "buy"
	// SideSell sells the base asset.
	SideSell Side = "sell"
)

// TypeLimit is the only order type the monitor evaluates.
const TypeLimit = "limit"

// Sort columns accepted by Filter.SortField.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByPrice     = "price"
	SortBySymbol    = "symbol"
)

// Order represents a single resting order as stored in the orders table.
// Price and Quantity keep the database text so precision is decided by the reader.
type Order struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Symbol    string         `json:"symbol"`
	Side      Side           `json:"side"`
	Price     string         `json:"price"`
	Quantity  string         `json:"quantity"`
	Status    Status         `json:"status"`
	Type      string         `json:"type"`
	Meta      map[string]any `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Broker returns the meta.broker tag, or an empty string when absent.
func (o *Order) Broker() string {
	if o == nil || o.Meta == nil {
		return ""
	}
	broker, _ := o.Meta["broker"].(string)
	return broker
}

// Filter represents the filter criteria for listing orders.
type Filter struct {
	Statuses      []Status `json:"statuses"`
	SortField     string   `json:"sort_field"`
	SortDirection string   `json:"sort_direction"`
	Limit         int      `json:"limit"`
	Offset        int      `json:"offset"`
}

// IsDescending reports whether the filter asks for descending order.
// Anything other than "asc" sorts descending.
func (f Filter) IsDescending() bool {
	return !strings.EqualFold(f.SortDirection, "asc")
}

// Page is one page of an order listing.
type Page struct {
	Data []*Order `json:"data"`
}
