package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"papertradev1/internal/markethours"
	"papertradev1/internal/model"
	"papertradev1/internal/notification"
	"papertradev1/internal/orderbook"
	"papertradev1/internal/pricegen"
)

func testInstruments() []model.Instrument {
	mk := func(id, symbol string, price int64) model.Instrument {
		return model.Instrument{
			ID: id, Symbol: symbol, Name: symbol, Exchange: "NSE",
			CurrentPrice: price, PreviousClose: price, Open: price,
			DayHigh: price, DayLow: price,
		}
	}
	return []model.Instrument{
		mk("tcs", "TCS", 100_00),
		mk("infy", "INFY", 50_00),
	}
}

// stillWalker keeps prices frozen so scenarios control them explicitly.
func stillWalker() *pricegen.Walker {
	w := pricegen.New(1)
	w.MaxMovePct = 0
	return w
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.InitialCash == 0 {
		opts.InitialCash = 10_000_00
	}
	if opts.Instruments == nil {
		opts.Instruments = testInstruments()
	}
	if opts.Walker == nil {
		opts.Walker = stillWalker()
	}
	if opts.Session == (markethours.Session{}) {
		opts.Session = markethours.Session{AlwaysOpen: true}
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.Func(func(context.Context, notification.Alert) error { return nil })
	}

	e := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	return e
}

// setPrice mutates a live price inside the event loop.
func setPrice(t *testing.T, e *Engine, id string, price int64) {
	t.Helper()
	if err := e.query(context.Background(), func(e *Engine) {
		e.instIdx[id].CurrentPrice = price
	}); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
}

func TestEngine_MarketBuyFillsOnPlacement(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	o, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	orders, _ := e.Orders(ctx)
	if len(orders) != 1 || orders[0].ID != o.ID {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if orders[0].Status != model.OrderExecuted {
		t.Fatalf("market order status = %s, want EXECUTED", orders[0].Status)
	}
	if orders[0].ExecutedPrice != 100_00 {
		t.Errorf("ExecutedPrice = %d, want 10000", orders[0].ExecutedPrice)
	}

	cash, _ := e.Cash(ctx)
	if cash != 10_000_00-10*100_00 {
		t.Errorf("cash = %d, want %d", cash, 10_000_00-10*100_00)
	}
	holdings, _ := e.Holdings(ctx)
	if len(holdings) != 1 || holdings[0].Qty != 10 {
		t.Fatalf("holdings = %+v", holdings)
	}
	txs, _ := e.Transactions(ctx, "")
	if len(txs) != 1 || txs[0].Total != 10*100_00 {
		t.Fatalf("transactions = %+v", txs)
	}
}

func TestEngine_LimitSellTriggersOnPriceCross(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	// Acquire shares first.
	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	o, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 10, LimitPrice: 105_00,
	})
	if err != nil {
		t.Fatalf("limit sell: %v", err)
	}
	if o.Status != model.OrderPending {
		t.Fatalf("limit sell below market executed immediately: %s", o.Status)
	}

	// Price below the limit: ticks must not fill it.
	if err := e.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	orders, _ := e.Orders(ctx)
	if orders[0].Status != model.OrderPending {
		t.Fatalf("order filled below limit: %s", orders[0].Status)
	}

	// Price crosses: fill at the live price, not the limit.
	setPrice(t, e, "tcs", 112_00)
	if err := e.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	orders, _ = e.Orders(ctx)
	if orders[0].Status != model.OrderExecuted {
		t.Fatalf("order not filled after cross: %s", orders[0].Status)
	}
	if orders[0].ExecutedPrice != 112_00 {
		t.Errorf("ExecutedPrice = %d, want 11200 (live price)", orders[0].ExecutedPrice)
	}

	cash, _ := e.Cash(ctx)
	want := int64(10_000_00 - 10*100_00 + 10*112_00)
	if cash != want {
		t.Errorf("cash = %d, want %d", cash, want)
	}
	if holdings, _ := e.Holdings(ctx); len(holdings) != 0 {
		t.Errorf("holding not removed after full exit: %+v", holdings)
	}
}

func TestEngine_RejectInsufficientFunds(t *testing.T) {
	e := newTestEngine(t, Options{InitialCash: 500_00})
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 10, // needs 1000.00
	})
	reason, ok := orderbook.Rejected(err)
	if !ok || reason != orderbook.RejectInsufficientFunds {
		t.Fatalf("err = %v, want INSUFFICIENT_FUNDS rejection", err)
	}

	// Rejections leave no order record and no state change.
	if orders, _ := e.Orders(ctx); len(orders) != 0 {
		t.Errorf("rejected order left a record: %+v", orders)
	}
	if cash, _ := e.Cash(ctx); cash != 500_00 {
		t.Errorf("cash = %d, want 50000", cash)
	}
}

func TestEngine_RejectOversizedBuy(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	// A quantity whose cost wraps int64 must still read as unaffordable.
	_, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1 << 60,
	})
	if reason, ok := orderbook.Rejected(err); !ok || reason != orderbook.RejectInsufficientFunds {
		t.Fatalf("err = %v, want INSUFFICIENT_FUNDS rejection", err)
	}
	if orders, _ := e.Orders(ctx); len(orders) != 0 {
		t.Errorf("rejected order left a record: %+v", orders)
	}
	if holdings, _ := e.Holdings(ctx); len(holdings) != 0 {
		t.Errorf("holdings minted from rejected buy: %+v", holdings)
	}
	if cash, _ := e.Cash(ctx); cash != 10_000_00 {
		t.Errorf("cash = %d, want 1000000", cash)
	}
}

func TestEngine_OversizedSellSkippedNotWrapped(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	// Seed a position too large to price without wrapping qty*price.
	huge := int64(1) << 60
	if err := e.query(ctx, func(e *Engine) {
		e.ledger.Restore(10_000_00, []model.Holding{
			{InstrumentID: "tcs", Symbol: "TCS", Qty: huge, AvgBuyPrice: 1, InvestedAmount: huge},
		})
	}); err != nil {
		t.Fatal(err)
	}

	o, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: huge,
	})
	if err != nil {
		t.Fatalf("admission: %v", err)
	}

	// The fill is flagged and skipped; the order stays PENDING and the
	// ledger is untouched instead of recording a wrapped total.
	orders, _ := e.Orders(ctx)
	if orders[0].ID != o.ID || orders[0].Status != model.OrderPending {
		t.Fatalf("order status = %s, want PENDING", orders[0].Status)
	}
	if cash, _ := e.Cash(ctx); cash != 10_000_00 {
		t.Errorf("cash = %d, want unchanged 1000000", cash)
	}
	if txs, _ := e.Transactions(ctx, ""); len(txs) != 0 {
		t.Errorf("wrapped fill recorded: %+v", txs)
	}
}

func TestEngine_RejectInsufficientShares(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1,
	})
	if reason, ok := orderbook.Rejected(err); !ok || reason != orderbook.RejectInsufficientShares {
		t.Fatalf("err = %v, want INSUFFICIENT_SHARES rejection", err)
	}
}

func TestEngine_CancelBeatsLaterTrigger(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	o, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 5, LimitPrice: 90_00,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	got, err := e.CancelOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != model.OrderCanceled {
		t.Fatalf("status = %s, want CANCELED", got.Status)
	}

	// Price now crosses the limit; the canceled order must never execute.
	setPrice(t, e, "tcs", 85_00)
	if err := e.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	orders, _ := e.Orders(ctx)
	if orders[0].Status != model.OrderCanceled {
		t.Fatalf("canceled order executed: %s", orders[0].Status)
	}
	if txs, _ := e.Transactions(ctx, ""); len(txs) != 0 {
		t.Errorf("canceled order produced fills: %+v", txs)
	}

	// Canceling again reports the terminal state.
	if _, err := e.CancelOrder(ctx, o.ID); err != orderbook.ErrNotCancelable {
		t.Errorf("second cancel err = %v, want ErrNotCancelable", err)
	}
}

func TestEngine_FIFOGivesOlderOrderTheShares(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
	)
	capture := notification.Func(func(_ context.Context, a notification.Alert) error {
		mu.Lock()
		titles = append(titles, a.Title)
		mu.Unlock()
		return nil
	})
	e := newTestEngine(t, Options{Notifier: capture})
	ctx := context.Background()

	// Hold exactly one share, then queue two limit sells for it. Each passes
	// the per-order admission check in isolation.
	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1,
	}); err != nil {
		t.Fatal(err)
	}
	first, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 1, LimitPrice: 110_00,
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 1, LimitPrice: 110_00,
	})
	if err != nil {
		t.Fatal(err)
	}

	setPrice(t, e, "tcs", 115_00)
	if err := e.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	// The older order gets the share; the younger one trips the execution-time
	// invariant, is skipped and stays PENDING.
	snap, _ := e.StateSnapshot(ctx)
	byID := make(map[string]model.Order, len(snap.Orders))
	for _, o := range snap.Orders {
		byID[o.ID] = o
	}
	if byID[first.ID].Status != model.OrderExecuted {
		t.Errorf("older sell status = %s, want EXECUTED", byID[first.ID].Status)
	}
	if byID[second.ID].Status != model.OrderPending {
		t.Errorf("younger sell status = %s, want PENDING", byID[second.ID].Status)
	}

	mu.Lock()
	defer mu.Unlock()
	skipped := false
	for _, title := range titles {
		if title == "Order Skipped" {
			skipped = true
		}
	}
	if !skipped {
		t.Error("no Order Skipped alert for the invariant breach")
	}
}

func TestEngine_ClosedSessionRejectsAndWithholds(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 12, 0, 0, 0, markethours.IST)
	e := New(Options{
		InitialCash: 10_000_00,
		Instruments: testInstruments(),
		Session:     markethours.Session{}, // real NSE hours
		Walker:      stillWalker(),
		Notifier:    notification.Func(func(context.Context, notification.Alert) error { return nil }),
		Now:         func() time.Time { return sunday },
	})
	runCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(runCtx)
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1,
	})
	if reason, ok := orderbook.Rejected(err); !ok || reason != orderbook.RejectMarketClosed {
		t.Fatalf("err = %v, want MARKET_CLOSED rejection", err)
	}

	// Ticks are skipped entirely while the session is closed.
	before, _ := e.Instruments(ctx)
	if err := e.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	after, _ := e.Instruments(ctx)
	for i := range before {
		if before[i].CurrentPrice != after[i].CurrentPrice || before[i].Volume != after[i].Volume {
			t.Fatalf("instrument %s mutated by closed-session tick", before[i].ID)
		}
	}
}

func TestEngine_ResetKeepsWatchlist(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 5,
	}); err != nil {
		t.Fatal(err)
	}
	pending, _ := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderLimit, InstrumentID: "infy", Qty: 1, LimitPrice: 10_00,
	})
	if err := e.AddToWatchlist(ctx, "infy"); err != nil {
		t.Fatal(err)
	}

	if err := e.ResetPortfolio(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if cash, _ := e.Cash(ctx); cash != 10_000_00 {
		t.Errorf("cash = %d, want initial 1000000", cash)
	}
	if holdings, _ := e.Holdings(ctx); len(holdings) != 0 {
		t.Errorf("holdings survived reset: %+v", holdings)
	}
	if txs, _ := e.Transactions(ctx, ""); len(txs) != 0 {
		t.Errorf("transactions survived reset: %+v", txs)
	}
	orders, _ := e.Orders(ctx)
	for _, o := range orders {
		if o.ID == pending.ID && o.Status != model.OrderCanceled {
			t.Errorf("pending order not canceled by reset: %s", o.Status)
		}
	}
	wl, _ := e.Watchlist(ctx)
	if len(wl) != 1 || wl[0] != "infy" {
		t.Errorf("watchlist lost in reset: %v", wl)
	}
}

func TestEngine_WatchlistUnknownInstrumentNoop(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	if err := e.AddToWatchlist(ctx, "ghost"); err != nil {
		t.Fatalf("unknown watch add should be a silent no-op: %v", err)
	}
	if wl, _ := e.Watchlist(ctx); len(wl) != 0 {
		t.Errorf("watchlist = %v, want empty", wl)
	}
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 3,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideSell, Kind: model.OrderLimit, InstrumentID: "tcs", Qty: 1, LimitPrice: 500_00,
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddToWatchlist(ctx, "infy"); err != nil {
		t.Fatal(err)
	}

	snap, err := e.StateSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	restored := newTestEngine(t, Options{Restore: snap})
	cash, _ := restored.Cash(ctx)
	if cash != snap.Cash {
		t.Errorf("cash = %d, want %d", cash, snap.Cash)
	}
	orders, _ := restored.Orders(ctx)
	if len(orders) != len(snap.Orders) {
		t.Errorf("orders = %d, want %d", len(orders), len(snap.Orders))
	}
	wl, _ := restored.Watchlist(ctx)
	if len(wl) != 1 || wl[0] != "infy" {
		t.Errorf("watchlist = %v", wl)
	}
	if holdings, _ := restored.Holdings(ctx); len(holdings) != 1 || holdings[0].Qty != 2 {
		t.Errorf("holdings = %+v", holdings)
	}
}

func TestEngine_SerializedCommands(t *testing.T) {
	e := newTestEngine(t, Options{InitialCash: 1_000_000_00})
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
				Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "infy", Qty: 1,
			})
			if err != nil {
				t.Errorf("concurrent place: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every fill applied exactly once, no interleaving.
	cash, _ := e.Cash(ctx)
	if want := int64(1_000_000_00 - n*50_00); cash != want {
		t.Errorf("cash = %d, want %d", cash, want)
	}
	if holdings, _ := e.Holdings(ctx); len(holdings) != 1 || holdings[0].Qty != n {
		t.Errorf("holdings = %+v", holdings)
	}
	if txs, _ := e.Transactions(ctx, ""); len(txs) != n {
		t.Errorf("fills = %d, want %d", len(txs), n)
	}
}

func TestEngine_NotificationsEmitted(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
	)
	capture := notification.Func(func(_ context.Context, a notification.Alert) error {
		mu.Lock()
		titles = append(titles, a.Title)
		mu.Unlock()
		return nil
	})

	e := newTestEngine(t, Options{Notifier: capture})
	ctx := context.Background()

	if _, err := e.PlaceOrder(ctx, orderbook.PlaceRequest{
		Side: model.SideBuy, Kind: model.OrderMarket, InstrumentID: "tcs", Qty: 1,
	}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"Order Placed", "Order Executed"}
	if len(titles) != 2 || titles[0] != want[0] || titles[1] != want[1] {
		t.Errorf("alert titles = %v, want %v", titles, want)
	}
}
