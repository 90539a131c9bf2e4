// Package orderbook holds the order records and the lifecycle state machine:
// PENDING → EXECUTED or PENDING → CANCELED, terminal states absorbing.
//
// Like the ledger, the Book carries no lock: the engine's event loop is the
// single writer, so a cancel and a matching pass can never interleave.
package orderbook

import (
	"time"

	"papertradev1/internal/model"
)

// PlaceRequest carries the admission-time parameters of a new order.
type PlaceRequest struct {
	Side         model.Side
	Kind         model.OrderKind
	InstrumentID string
	Qty          int64
	LimitPrice   int64 // paise, required iff Kind is LIMIT
}

// Book owns all orders, pending and terminal, in creation order.
type Book struct {
	orders []*model.Order
	byID   map[string]*model.Order
}

// New creates an empty Book.
func New() *Book {
	return &Book{byID: make(map[string]*model.Order)}
}

// Validate runs the pre-trade admission checks for a placement.
// currentPrice, cash and heldQty reflect live state at placement time; the
// funds check is an estimate only since execution happens later. It compares
// by division so an oversized quantity cannot wrap the cost computation.
func Validate(req PlaceRequest, instrumentExists, marketOpen bool, currentPrice, cash, heldQty int64) error {
	if !marketOpen {
		return &RejectedError{Reason: RejectMarketClosed}
	}
	if !instrumentExists {
		return &RejectedError{Reason: RejectUnknownInstrument}
	}
	if req.Qty <= 0 {
		return &RejectedError{Reason: RejectInvalidQuantity}
	}
	if req.Kind == model.OrderLimit && req.LimitPrice <= 0 {
		return &RejectedError{Reason: RejectInvalidLimitPrice}
	}
	if req.Side == model.SideSell && heldQty < req.Qty {
		return &RejectedError{Reason: RejectInsufficientShares}
	}
	if req.Side == model.SideBuy && (currentPrice <= 0 || req.Qty > cash/currentPrice) {
		return &RejectedError{Reason: RejectInsufficientFunds}
	}
	return nil
}

// Add admits a validated order into the book.
func (b *Book) Add(o *model.Order) {
	b.orders = append(b.orders, o)
	b.byID[o.ID] = o
}

// Get returns the order with the given ID.
func (b *Book) Get(id string) (*model.Order, bool) {
	o, ok := b.byID[id]
	return o, ok
}

// Pending returns the live pointers of all PENDING orders in creation order
// (oldest first — FIFO execution fairness for the matching pass).
func (b *Book) Pending() []*model.Order {
	var out []*model.Order
	for _, o := range b.orders {
		if o.Status == model.OrderPending {
			out = append(out, o)
		}
	}
	return out
}

// Orders returns a copy of all orders, most recent first.
func (b *Book) Orders() []model.Order {
	out := make([]model.Order, 0, len(b.orders))
	for i := len(b.orders) - 1; i >= 0; i-- {
		out = append(out, *b.orders[i])
	}
	return out
}

// Cancel transitions a PENDING order to CANCELED. Orders already in a
// terminal state return ErrNotCancelable; the state is unchanged, so a
// second cancel of the same order is a no-op.
func (b *Book) Cancel(id string) (model.Order, error) {
	o, ok := b.byID[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	if o.Terminal() {
		return *o, ErrNotCancelable
	}
	o.Status = model.OrderCanceled
	return *o, nil
}

// CancelAllPending cancels every PENDING order (portfolio reset).
// Returns the number of orders canceled.
func (b *Book) CancelAllPending() int {
	n := 0
	for _, o := range b.orders {
		if o.Status == model.OrderPending {
			o.Status = model.OrderCanceled
			n++
		}
	}
	return n
}

// Triggered reports whether a pending order should execute at the given live
// price. MARKET orders always trigger; LIMIT orders trigger when the price
// crosses the limit threshold (BUY: price ≤ limit, SELL: price ≥ limit).
// The limit price is only the trigger — the fill happens at the live price.
func Triggered(o *model.Order, price int64) bool {
	if o.Kind == model.OrderMarket {
		return true
	}
	if o.Side == model.SideBuy {
		return price <= o.LimitPrice
	}
	return price >= o.LimitPrice
}

// MarkExecuted finalizes an order at the given fill price.
func (b *Book) MarkExecuted(o *model.Order, price int64, at time.Time) {
	o.Status = model.OrderExecuted
	o.ExecutedAt = at
	o.ExecutedPrice = price
}

// Restore replaces the book contents wholesale (startup rehydration).
// Orders are expected in creation order, oldest first.
func (b *Book) Restore(orders []model.Order) {
	b.orders = make([]*model.Order, 0, len(orders))
	b.byID = make(map[string]*model.Order, len(orders))
	for i := range orders {
		o := orders[i]
		b.orders = append(b.orders, &o)
		b.byID[o.ID] = &o
	}
}

// All returns a copy of all orders in creation order (snapshot persistence).
func (b *Book) All() []model.Order {
	out := make([]model.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}
