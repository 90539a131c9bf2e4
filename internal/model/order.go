package model

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderKind distinguishes market from limit orders.
type OrderKind string

const (
	OrderMarket OrderKind = "MARKET"
	OrderLimit  OrderKind = "LIMIT"
)

// OrderStatus is the lifecycle state of an order.
// Transitions are one-way: PENDING → EXECUTED or PENDING → CANCELED.
type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderExecuted OrderStatus = "EXECUTED"
	OrderCanceled OrderStatus = "CANCELED"
)

// Order represents a user's buy/sell instruction.
// LimitPrice is 0 for market orders. ExecutedAt/ExecutedPrice are set only
// once the order reaches EXECUTED.
type Order struct {
	ID            string      `json:"id"`
	Side          Side        `json:"side"`
	Kind          OrderKind   `json:"kind"`
	InstrumentID  string      `json:"instrument_id"`
	Symbol        string      `json:"symbol"`
	Qty           int64       `json:"qty"`
	LimitPrice    int64       `json:"limit_price,omitempty"` // paise
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	ExecutedAt    time.Time   `json:"executed_at,omitempty"`
	ExecutedPrice int64       `json:"executed_price,omitempty"` // paise
}

// Terminal reports whether the order is in an absorbing state.
func (o *Order) Terminal() bool {
	return o.Status == OrderExecuted || o.Status == OrderCanceled
}
