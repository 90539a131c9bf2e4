package orderbook

import (
	"errors"
	"testing"
	"time"

	"papertradev1/internal/model"
)

func pendingOrder(id string, side model.Side, kind model.OrderKind, limit int64) *model.Order {
	return &model.Order{
		ID:           id,
		Side:         side,
		Kind:         kind,
		InstrumentID: "tcs",
		Symbol:       "TCS",
		Qty:          5,
		LimitPrice:   limit,
		Status:       model.OrderPending,
		CreatedAt:    time.Now(),
	}
}

func TestValidate_RejectReasons(t *testing.T) {
	base := PlaceRequest{Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10}

	cases := []struct {
		name   string
		req    PlaceRequest
		exists bool
		open   bool
		price  int64
		cash   int64
		held   int64
		want   RejectReason
	}{
		{"market closed", base, true, false, 100, 10_000, 0, RejectMarketClosed},
		{"unknown instrument", base, false, true, 100, 10_000, 0, RejectUnknownInstrument},
		{"zero qty", PlaceRequest{Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 0}, true, true, 100, 10_000, 0, RejectInvalidQuantity},
		{"negative qty", PlaceRequest{Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: -3}, true, true, 100, 10_000, 0, RejectInvalidQuantity},
		{"zero limit", PlaceRequest{Side: model.SideBuy, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 1}, true, true, 100, 10_000, 0, RejectInvalidLimitPrice},
		{"oversell", PlaceRequest{Side: model.SideSell, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10}, true, true, 100, 10_000, 4, RejectInsufficientShares},
		{"insufficient funds", base, true, true, 100, 999, 0, RejectInsufficientFunds},
		{"overflowing buy cost", PlaceRequest{Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1 << 60}, true, true, 100_00, 10_000_00, 0, RejectInsufficientFunds},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req, tc.exists, tc.open, tc.price, tc.cash, tc.held)
			reason, ok := Rejected(err)
			if !ok {
				t.Fatalf("expected RejectedError, got %v", err)
			}
			if reason != tc.want {
				t.Errorf("reason = %s, want %s", reason, tc.want)
			}
		})
	}
}

func TestValidate_MarketClosedWinsOverOtherChecks(t *testing.T) {
	// Even a completely invalid request reports MARKET_CLOSED first.
	req := PlaceRequest{Side: model.SideBuy, Kind: model.OrderLimit, InstrumentID: "ghost", Qty: -1}
	err := Validate(req, false, false, 0, 0, 0)
	if reason, _ := Rejected(err); reason != RejectMarketClosed {
		t.Errorf("reason = %s, want MARKET_CLOSED", reason)
	}
}

func TestValidate_OK(t *testing.T) {
	buy := PlaceRequest{Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10}
	if err := Validate(buy, true, true, 100, 1000, 0); err != nil {
		t.Errorf("exact-cash buy should pass: %v", err)
	}
	sell := PlaceRequest{Side: model.SideSell, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 4, LimitPrice: 120}
	if err := Validate(sell, true, true, 100, 0, 4); err != nil {
		t.Errorf("exact-qty sell should pass: %v", err)
	}
}

func TestTriggered(t *testing.T) {
	market := pendingOrder("m1", model.SideBuy, model.OrderMarket, 0)
	if !Triggered(market, 1) || !Triggered(market, 1<<40) {
		t.Error("market order must always trigger")
	}

	limitBuy := pendingOrder("b1", model.SideBuy, model.OrderLimit, 105_00)
	if Triggered(limitBuy, 110_00) {
		t.Error("limit buy must not trigger above the limit")
	}
	if !Triggered(limitBuy, 105_00) || !Triggered(limitBuy, 99_00) {
		t.Error("limit buy must trigger at or below the limit")
	}

	limitSell := pendingOrder("s1", model.SideSell, model.OrderLimit, 105_00)
	if Triggered(limitSell, 99_00) {
		t.Error("limit sell must not trigger below the limit")
	}
	if !Triggered(limitSell, 105_00) || !Triggered(limitSell, 112_00) {
		t.Error("limit sell must trigger at or above the limit")
	}
}

func TestBook_Cancel(t *testing.T) {
	b := New()
	o := pendingOrder("o1", model.SideBuy, model.OrderLimit, 100_00)
	b.Add(o)

	got, err := b.Cancel("o1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != model.OrderCanceled {
		t.Errorf("Status = %s, want CANCELED", got.Status)
	}

	// Second cancel: terminal state, no transition.
	_, err = b.Cancel("o1")
	if !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable, got %v", err)
	}

	if _, err := b.Cancel("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBook_CancelExecutedFails(t *testing.T) {
	b := New()
	o := pendingOrder("o1", model.SideBuy, model.OrderMarket, 0)
	b.Add(o)
	b.MarkExecuted(o, 100_00, time.Now())

	if _, err := b.Cancel("o1"); !errors.Is(err, ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable for executed order, got %v", err)
	}
	if o.Status != model.OrderExecuted {
		t.Errorf("executed order mutated by cancel: %s", o.Status)
	}
}

func TestBook_PendingFIFO(t *testing.T) {
	b := New()
	b.Add(pendingOrder("first", model.SideBuy, model.OrderMarket, 0))
	b.Add(pendingOrder("second", model.SideBuy, model.OrderMarket, 0))
	exec := pendingOrder("third", model.SideBuy, model.OrderMarket, 0)
	b.Add(exec)
	b.MarkExecuted(exec, 100, time.Now())

	pending := b.Pending()
	if len(pending) != 2 {
		t.Fatalf("Pending() = %d orders, want 2", len(pending))
	}
	if pending[0].ID != "first" || pending[1].ID != "second" {
		t.Errorf("pending order sequence wrong: %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestBook_OrdersMostRecentFirst(t *testing.T) {
	b := New()
	b.Add(pendingOrder("a", model.SideBuy, model.OrderMarket, 0))
	b.Add(pendingOrder("b", model.SideBuy, model.OrderMarket, 0))

	orders := b.Orders()
	if orders[0].ID != "b" || orders[1].ID != "a" {
		t.Errorf("Orders() not most-recent-first: %s, %s", orders[0].ID, orders[1].ID)
	}
}

func TestBook_CancelAllPending(t *testing.T) {
	b := New()
	b.Add(pendingOrder("a", model.SideBuy, model.OrderMarket, 0))
	exec := pendingOrder("b", model.SideSell, model.OrderMarket, 0)
	b.Add(exec)
	b.MarkExecuted(exec, 100, time.Now())
	b.Add(pendingOrder("c", model.SideBuy, model.OrderLimit, 50))

	if n := b.CancelAllPending(); n != 2 {
		t.Errorf("CancelAllPending = %d, want 2", n)
	}
	if len(b.Pending()) != 0 {
		t.Error("orders still pending after CancelAllPending")
	}
	if o, _ := b.Get("b"); o.Status != model.OrderExecuted {
		t.Error("executed order must survive CancelAllPending")
	}
}

func TestBook_Restore(t *testing.T) {
	b := New()
	b.Add(pendingOrder("a", model.SideBuy, model.OrderMarket, 0))
	b.Add(pendingOrder("b", model.SideSell, model.OrderLimit, 100))
	saved := b.All()

	restored := New()
	restored.Restore(saved)
	if len(restored.All()) != 2 {
		t.Fatalf("restored %d orders, want 2", len(restored.All()))
	}
	if o, ok := restored.Get("b"); !ok || o.LimitPrice != 100 {
		t.Error("restored order lookup failed")
	}
}
