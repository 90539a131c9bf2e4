package orderbook

import (
	"errors"
	"fmt"
)

// RejectReason classifies why an order failed admission. Each reason maps
// 1:1 to distinct user-facing notification text.
type RejectReason string

const (
	RejectUnknownInstrument  RejectReason = "UNKNOWN_INSTRUMENT"
	RejectInvalidQuantity    RejectReason = "INVALID_QUANTITY"
	RejectInvalidLimitPrice  RejectReason = "INVALID_LIMIT_PRICE"
	RejectInsufficientShares RejectReason = "INSUFFICIENT_SHARES"
	RejectInsufficientFunds  RejectReason = "INSUFFICIENT_FUNDS"
	RejectMarketClosed       RejectReason = "MARKET_CLOSED"
)

// Message returns the user-facing description for the reason.
func (r RejectReason) Message() string {
	switch r {
	case RejectUnknownInstrument:
		return "Stock not found"
	case RejectInvalidQuantity:
		return "Quantity must be a positive whole number"
	case RejectInvalidLimitPrice:
		return "Limit price must be a positive amount"
	case RejectInsufficientShares:
		return "Not enough shares to sell"
	case RejectInsufficientFunds:
		return "Insufficient funds"
	case RejectMarketClosed:
		return "Market is closed"
	}
	return "Order rejected"
}

// RejectedError is the synchronous admission failure returned by PlaceOrder.
// Rejected orders are never admitted into the book.
type RejectedError struct {
	Reason RejectReason
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", e.Reason.Message())
}

// Rejected extracts the reject reason from err, if it is a RejectedError.
func Rejected(err error) (RejectReason, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

// ErrNotCancelable is returned when canceling an order that is already in a
// terminal state (executed or canceled).
var ErrNotCancelable = errors.New("order already terminal")

// ErrNotFound is returned when an order ID is unknown.
var ErrNotFound = errors.New("order not found")
