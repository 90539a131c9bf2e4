package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"papertradev1/internal/model"
	"papertradev1/internal/notification"
	"papertradev1/internal/orderbook"
)

// command is the closed set of events the loop applies. Queries travel as
// queryCmd so reads observe a consistent state between mutations.
type command interface {
	name() string
}

type placeOrderCmd struct{ req orderbook.PlaceRequest }
type cancelOrderCmd struct{ orderID string }
type watchCmd struct {
	instrumentID string
	add          bool
}
type resetCmd struct{}
type tickCmd struct{}
type dayRollCmd struct{}
type queryCmd struct{ fn func(*Engine) }

func (placeOrderCmd) name() string  { return "place_order" }
func (cancelOrderCmd) name() string { return "cancel_order" }
func (watchCmd) name() string       { return "watchlist" }
func (resetCmd) name() string       { return "reset_portfolio" }
func (tickCmd) name() string        { return "tick" }
func (dayRollCmd) name() string     { return "day_roll" }
func (queryCmd) name() string       { return "query" }

// apply dispatches one event inside the loop goroutine.
func (e *Engine) apply(c command) result {
	switch cmd := c.(type) {
	case placeOrderCmd:
		return e.applyPlace(cmd.req)
	case cancelOrderCmd:
		return e.applyCancel(cmd.orderID)
	case watchCmd:
		return e.applyWatch(cmd.instrumentID, cmd.add)
	case resetCmd:
		return e.applyReset()
	case tickCmd:
		return e.applyTick()
	case dayRollCmd:
		return e.applyDayRoll()
	case queryCmd:
		cmd.fn(e)
		return result{}
	default:
		return result{err: fmt.Errorf("unknown command %q", c.name())}
	}
}

func (e *Engine) applyPlace(req orderbook.PlaceRequest) result {
	now := e.now()
	inst, instExists := e.instIdx[req.InstrumentID]
	var currentPrice int64
	if instExists {
		currentPrice = inst.CurrentPrice
	}

	err := orderbook.Validate(req, instExists, e.session.IsOpen(now),
		currentPrice, e.ledger.Cash(), e.ledger.HeldQty(req.InstrumentID))
	if err != nil {
		reason, _ := orderbook.Rejected(err)
		if e.metrics != nil {
			e.metrics.OrdersRejected.WithLabelValues(string(reason)).Inc()
		}
		e.notify(notification.LevelWarning, "Order Failed", reason.Message())
		return result{err: err}
	}

	o := &model.Order{
		ID:           uuid.NewString(),
		Side:         req.Side,
		Kind:         req.Kind,
		InstrumentID: req.InstrumentID,
		Symbol:       inst.Symbol,
		Qty:          req.Qty,
		LimitPrice:   req.LimitPrice,
		Status:       model.OrderPending,
		CreatedAt:    now,
	}
	e.book.Add(o)
	if e.metrics != nil {
		e.metrics.OrdersPlaced.Inc()
	}
	e.notify(notification.LevelInfo, "Order Placed", describeOrder(o))

	// Uniform execution path: the pass right after admission fills market
	// orders, it never executes inline.
	e.matchingPass(now)
	e.commit()
	return result{order: *o}
}

func (e *Engine) applyCancel(orderID string) result {
	o, err := e.book.Cancel(orderID)
	if err != nil {
		if errors.Is(err, orderbook.ErrNotCancelable) {
			e.notify(notification.LevelWarning, "Order Not Canceled",
				fmt.Sprintf("Order is already %s", lower(o.Status)))
		}
		return result{order: o, err: err}
	}
	if e.metrics != nil {
		e.metrics.OrdersCanceled.Inc()
	}
	e.notify(notification.LevelInfo, "Order Canceled",
		fmt.Sprintf("%s order for %d %s has been canceled", o.Side, o.Qty, o.Symbol))
	e.commit()
	return result{order: o}
}

func (e *Engine) applyWatch(instrumentID string, add bool) result {
	inst, ok := e.instIdx[instrumentID]
	if !ok {
		// Invalid instrument lookups are a no-op.
		return result{}
	}
	if add {
		if !e.watch.Add(instrumentID) {
			return result{}
		}
		e.notify(notification.LevelInfo, "Added to Watchlist",
			fmt.Sprintf("%s (%s) added to your watchlist", inst.Name, inst.Symbol))
	} else {
		if !e.watch.Remove(instrumentID) {
			return result{}
		}
		e.notify(notification.LevelInfo, "Removed from Watchlist",
			fmt.Sprintf("%s (%s) removed from your watchlist", inst.Name, inst.Symbol))
	}
	e.commit()
	return result{}
}

func (e *Engine) applyReset() result {
	e.ledger.Reset(e.initialCash)
	canceled := e.book.CancelAllPending()
	e.txlog.Reset()
	if e.metrics != nil {
		e.metrics.CashBalance.Set(float64(e.ledger.Cash()))
	}
	e.notify(notification.LevelInfo, "Portfolio Reset",
		fmt.Sprintf("Cash restored to %s, %d pending orders canceled",
			model.Rupees(e.initialCash), canceled))
	e.commit()
	return result{}
}

func (e *Engine) applyTick() result {
	now := e.now()
	open := e.session.IsOpen(now)
	if e.metrics != nil {
		if open {
			e.metrics.MarketState.Set(1)
		} else {
			e.metrics.MarketState.Set(0)
		}
	}
	if !open {
		// No ticks while the session is closed; pending orders stay withheld.
		return result{}
	}

	for _, inst := range e.instruments {
		e.walker.Step(inst)
	}
	if e.metrics != nil {
		e.metrics.TicksTotal.Inc()
	}

	e.matchingPass(now)
	e.commit()

	if e.onTick != nil {
		snapshot := make([]model.Instrument, 0, len(e.instruments))
		for _, inst := range e.instruments {
			snapshot = append(snapshot, *inst)
		}
		e.onTick(snapshot)
	}
	return result{}
}

func (e *Engine) applyDayRoll() result {
	for _, inst := range e.instruments {
		e.walker.DayRoll(inst)
	}
	e.commit()
	return result{}
}

func lower(s model.OrderStatus) string {
	switch s {
	case model.OrderExecuted:
		return "executed"
	case model.OrderCanceled:
		return "canceled"
	}
	return "pending"
}
