// Package ledger maintains the portfolio cash balance and per-instrument
// holdings under weighted-average cost accounting.
//
// The Ledger carries no lock: every mutation is funneled through the engine's
// single event loop, which is the only writer. ApplyBuy/ApplySell are invoked
// exclusively from order execution, never from a direct external command.
package ledger

import (
	"fmt"

	"papertradev1/internal/model"
)

// ErrOversell is returned when a sell would exceed the held quantity.
// Reaching it from execution means an admission-time invariant was broken.
var ErrOversell = fmt.Errorf("sell quantity exceeds holding")

// Ledger holds cash and the holding set. Amounts are int64 paise.
type Ledger struct {
	cash     int64
	holdings []model.Holding // insertion order, one entry per instrument
}

// New creates a Ledger with the given starting cash.
func New(initialCash int64) *Ledger {
	return &Ledger{cash: initialCash}
}

// Cash returns the current cash balance in paise.
func (l *Ledger) Cash() int64 { return l.cash }

// Holding returns the holding for an instrument, if any.
func (l *Ledger) Holding(instrumentID string) (model.Holding, bool) {
	for i := range l.holdings {
		if l.holdings[i].InstrumentID == instrumentID {
			return l.holdings[i], true
		}
	}
	return model.Holding{}, false
}

// HeldQty returns the held quantity for an instrument (0 if none).
func (l *Ledger) HeldQty(instrumentID string) int64 {
	if h, ok := l.Holding(instrumentID); ok {
		return h.Qty
	}
	return 0
}

// Holdings returns a copy of all holdings in insertion order.
func (l *Ledger) Holdings() []model.Holding {
	cp := make([]model.Holding, len(l.holdings))
	copy(cp, l.holdings)
	return cp
}

// ApplyBuy records a buy fill: cash decreases by qty*price and the holding's
// cost basis is blended via weighted average. Cash is allowed to go negative
// here; the pre-trade check at placement time is only an estimate.
func (l *Ledger) ApplyBuy(instrumentID, symbol string, qty, price int64) {
	total := qty * price
	l.cash -= total

	for i := range l.holdings {
		h := &l.holdings[i]
		if h.InstrumentID != instrumentID {
			continue
		}
		h.Qty += qty
		h.InvestedAmount += total
		h.AvgBuyPrice = h.InvestedAmount / h.Qty
		return
	}

	l.holdings = append(l.holdings, model.Holding{
		InstrumentID:   instrumentID,
		Symbol:         symbol,
		Qty:            qty,
		AvgBuyPrice:    price,
		InvestedAmount: total,
	})
}

// ApplySell records a sell fill: cash increases by qty*price and the holding
// shrinks. The invested amount scales proportionally with the remaining
// quantity; the average buy price is a sell-invariant under weighted-average
// accounting. A holding that reaches zero quantity is removed.
func (l *Ledger) ApplySell(instrumentID string, qty, price int64) error {
	for i := range l.holdings {
		h := &l.holdings[i]
		if h.InstrumentID != instrumentID {
			continue
		}
		if qty > h.Qty {
			return fmt.Errorf("%w: have %d, selling %d", ErrOversell, h.Qty, qty)
		}

		l.cash += qty * price
		remaining := h.Qty - qty
		if remaining == 0 {
			l.holdings = append(l.holdings[:i], l.holdings[i+1:]...)
			return nil
		}
		h.InvestedAmount = h.InvestedAmount * remaining / h.Qty
		h.Qty = remaining
		return nil
	}
	return fmt.Errorf("%w: no holding for %s", ErrOversell, instrumentID)
}

// Reset restores the initial cash balance and clears all holdings.
func (l *Ledger) Reset(initialCash int64) {
	l.cash = initialCash
	l.holdings = nil
}

// Restore replaces the ledger state wholesale (startup rehydration).
func (l *Ledger) Restore(cash int64, holdings []model.Holding) {
	l.cash = cash
	l.holdings = make([]model.Holding, len(holdings))
	copy(l.holdings, holdings)
}
