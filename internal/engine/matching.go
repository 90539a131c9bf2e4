package engine

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"papertradev1/internal/model"
	"papertradev1/internal/notification"
	"papertradev1/internal/orderbook"
)

// matchingPass evaluates every PENDING order, oldest first, against the live
// prices. It runs after every applied tick and after every admission while
// the session is open. Terminal orders are excluded by construction, so a
// cancel that won the race is never executed.
func (e *Engine) matchingPass(now time.Time) {
	if !e.session.IsOpen(now) {
		return
	}
	start := time.Now()

	for _, o := range e.book.Pending() {
		inst, ok := e.instIdx[o.InstrumentID]
		if !ok {
			e.flagViolation(o, fmt.Errorf("instrument %s missing from table", o.InstrumentID))
			continue
		}
		price := inst.CurrentPrice
		if !orderbook.Triggered(o, price) {
			continue
		}
		e.execute(o, price, now)
	}

	if e.metrics != nil {
		e.metrics.MatchingPassDur.Observe(time.Since(start).Seconds())
	}
}

// execute fills one triggered order at the live price: ledger mutation, order
// transition and transaction append happen together, in the loop.
func (e *Engine) execute(o *model.Order, price int64, now time.Time) {
	// qty*price must not wrap; this is the single fill path, so the guard
	// covers the ledger mutation and the transaction total together.
	if o.Qty > math.MaxInt64/price {
		e.flagViolation(o, fmt.Errorf("fill total overflows: qty=%d price=%d", o.Qty, price))
		return
	}
	if o.Side == model.SideSell {
		// Re-check the admission invariant. A breach here is an internal
		// consistency bug: flag and skip, never clamp and never touch cash.
		if err := e.ledger.ApplySell(o.InstrumentID, o.Qty, price); err != nil {
			e.flagViolation(o, err)
			return
		}
	} else {
		e.ledger.ApplyBuy(o.InstrumentID, o.Symbol, o.Qty, price)
	}

	e.book.MarkExecuted(o, price, now)
	t := model.Transaction{
		ID:           uuid.NewString(),
		Side:         o.Side,
		InstrumentID: o.InstrumentID,
		Symbol:       o.Symbol,
		Qty:          o.Qty,
		Price:        price,
		Total:        o.Qty * price,
		Timestamp:    now,
	}
	e.txlog.Record(t)

	if e.metrics != nil {
		e.metrics.OrdersExecuted.WithLabelValues(string(o.Side)).Inc()
		e.metrics.CashBalance.Set(float64(e.ledger.Cash()))
	}
	e.notify(notification.LevelInfo, "Order Executed",
		fmt.Sprintf("%s %d %s at %s", o.Side, o.Qty, o.Symbol, model.Rupees(price)))
}

// flagViolation records an execution-time invariant breach. The offending
// iteration is skipped and the order stays PENDING; subsequent orders in the
// same pass still process.
func (e *Engine) flagViolation(o *model.Order, err error) {
	log.Printf("[engine] consistency violation on order %s (%s %d %s): %v",
		o.ID, o.Side, o.Qty, o.Symbol, err)
	if e.metrics != nil {
		e.metrics.ConsistencyViolations.Inc()
	}
	e.notify(notification.LevelCritical, "Order Skipped",
		fmt.Sprintf("%s %d %s could not execute and was left pending", o.Side, o.Qty, o.Symbol))
}
