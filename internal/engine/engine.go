// Package engine is the order lifecycle and portfolio accounting core.
//
// Every state transition — command or price tick — is funneled through one
// event loop running in a single goroutine, so no two mutations interleave.
// Callers get synchronous replies over per-command channels; the periodic
// tick is a timer that enqueues a tick event rather than mutating state from
// another goroutine. The ledger, order book, transaction log and watchlist
// are therefore lock-free: the loop is their only writer.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"papertradev1/internal/ledger"
	"papertradev1/internal/markethours"
	"papertradev1/internal/metrics"
	"papertradev1/internal/model"
	"papertradev1/internal/notification"
	"papertradev1/internal/orderbook"
	"papertradev1/internal/pricegen"
	"papertradev1/internal/txlog"
	"papertradev1/internal/watchlist"
)

const defaultInboxSize = 256

// Store persists the full state bundle after every mutation.
type Store interface {
	SaveState(snap *Snapshot) error
}

// Options configures a new Engine.
type Options struct {
	InitialCash int64
	Instruments []model.Instrument
	Session     markethours.Session
	Walker      *pricegen.Walker

	Store    Store                 // optional durable store
	Notifier notification.Notifier // optional, defaults to LogNotifier
	Metrics  *metrics.Metrics      // optional

	// OnTick is invoked from the event loop after each applied tick with a
	// snapshot of all instruments. It must not block.
	OnTick func([]model.Instrument)

	// Restore rehydrates the engine from a persisted snapshot. The snapshot's
	// instrument table replaces Instruments.
	Restore *Snapshot

	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time

	InboxSize int
}

// Engine owns the whole state bundle and serializes access to it.
type Engine struct {
	inbox chan envelope

	instruments []*model.Instrument
	instIdx     map[string]*model.Instrument

	walker  *pricegen.Walker
	ledger  *ledger.Ledger
	book    *orderbook.Book
	txlog   *txlog.Log
	watch   *watchlist.Store
	session markethours.Session

	store    Store
	notifier notification.Notifier
	metrics  *metrics.Metrics
	onTick   func([]model.Instrument)

	initialCash int64
	now         func() time.Time
}

// New creates an Engine. Run must be called before any command is accepted.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Walker == nil {
		opts.Walker = pricegen.New(opts.Now().UnixNano())
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.NewLogNotifier()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}

	e := &Engine{
		inbox:       make(chan envelope, opts.InboxSize),
		instIdx:     make(map[string]*model.Instrument),
		walker:      opts.Walker,
		ledger:      ledger.New(opts.InitialCash),
		book:        orderbook.New(),
		txlog:       txlog.New(),
		watch:       watchlist.New(),
		session:     opts.Session,
		store:       opts.Store,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		onTick:      opts.OnTick,
		initialCash: opts.InitialCash,
		now:         opts.Now,
	}

	instruments := opts.Instruments
	if opts.Restore != nil && len(opts.Restore.Instruments) > 0 {
		instruments = opts.Restore.Instruments
	}
	for i := range instruments {
		inst := instruments[i]
		e.instruments = append(e.instruments, &inst)
		e.instIdx[inst.ID] = &inst
	}

	if opts.Restore != nil {
		s := opts.Restore
		e.ledger.Restore(s.Cash, s.Holdings)
		e.book.Restore(s.Orders)
		e.txlog.Restore(s.Transactions)
		e.watch.Restore(s.Watchlist)
		log.Printf("[engine] restored state: cash=%d holdings=%d orders=%d transactions=%d",
			s.Cash, len(s.Holdings), len(s.Orders), len(s.Transactions))
	}

	return e
}

// Run starts the event loop. It must run in exactly one goroutine and blocks
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("[engine] event loop started (%d instruments, cash=%s)",
		len(e.instruments), model.Rupees(e.ledger.Cash()))
	for {
		select {
		case <-ctx.Done():
			log.Println("[engine] event loop stopping")
			return
		case env := <-e.inbox:
			env.reply <- e.apply(env.cmd)
		}
	}
}

// StartTicker launches the periodic tick timer. Each firing enqueues one tick
// event into the loop; it never mutates state directly.
func (e *Engine) StartTicker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Tick(ctx); err != nil {
					return
				}
			}
		}
	}()
}

type envelope struct {
	cmd   command
	reply chan result
}

type result struct {
	order model.Order
	err   error
}

// do enqueues a command and waits for the loop's reply.
func (e *Engine) do(ctx context.Context, c command) (result, error) {
	env := envelope{cmd: c, reply: make(chan result, 1)}
	select {
	case e.inbox <- env:
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case r := <-env.reply:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// PlaceOrder validates and admits a new order. All admission failures are
// returned synchronously as *orderbook.RejectedError and leave no order
// record behind. Admitted MARKET orders are not executed inline — the
// matching pass that runs right after admission fills them, keeping one
// uniform execution path.
func (e *Engine) PlaceOrder(ctx context.Context, req orderbook.PlaceRequest) (model.Order, error) {
	r, err := e.do(ctx, placeOrderCmd{req: req})
	if err != nil {
		return model.Order{}, err
	}
	return r.order, r.err
}

// CancelOrder transitions a PENDING order to CANCELED. Canceling a terminal
// order returns orderbook.ErrNotCancelable and changes nothing.
func (e *Engine) CancelOrder(ctx context.Context, orderID string) (model.Order, error) {
	r, err := e.do(ctx, cancelOrderCmd{orderID: orderID})
	if err != nil {
		return model.Order{}, err
	}
	return r.order, r.err
}

// AddToWatchlist adds an instrument to the watchlist. Unknown instrument IDs
// and duplicates are no-ops.
func (e *Engine) AddToWatchlist(ctx context.Context, instrumentID string) error {
	r, err := e.do(ctx, watchCmd{instrumentID: instrumentID, add: true})
	if err != nil {
		return err
	}
	return r.err
}

// RemoveFromWatchlist removes an instrument from the watchlist. Idempotent.
func (e *Engine) RemoveFromWatchlist(ctx context.Context, instrumentID string) error {
	r, err := e.do(ctx, watchCmd{instrumentID: instrumentID, add: false})
	if err != nil {
		return err
	}
	return r.err
}

// ResetPortfolio restores the initial cash, clears holdings and transactions,
// and cancels all still-PENDING orders. The watchlist is untouched.
func (e *Engine) ResetPortfolio(ctx context.Context) error {
	r, err := e.do(ctx, resetCmd{})
	if err != nil {
		return err
	}
	return r.err
}

// Tick applies one simulated price tick followed by a matching pass.
// Exposed so tests and the demo feed can drive the market deterministically.
func (e *Engine) Tick(ctx context.Context) error {
	_, err := e.do(ctx, tickCmd{})
	return err
}

// DayRoll starts a new trading day: previous close, open and day high/low
// reset from the last traded price. Scheduled at market open.
func (e *Engine) DayRoll(ctx context.Context) error {
	_, err := e.do(ctx, dayRollCmd{})
	return err
}

func (e *Engine) notify(level notification.Level, title, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.notifier.Send(ctx, notification.Alert{
		Level:   level,
		Title:   title,
		Message: msg,
		At:      e.now(),
	}); err != nil {
		log.Printf("[engine] notify error: %v", err)
	}
}

// commit persists the full state bundle. Persistence failures are logged and
// do not fail the command: the in-memory state is authoritative.
func (e *Engine) commit() {
	if e.store == nil {
		return
	}
	start := time.Now()
	if err := e.store.SaveState(e.buildSnapshot()); err != nil {
		log.Printf("[engine] snapshot commit error: %v", err)
		return
	}
	if e.metrics != nil {
		e.metrics.SnapshotSaveDur.Observe(time.Since(start).Seconds())
	}
}

func (e *Engine) buildSnapshot() *Snapshot {
	instruments := make([]model.Instrument, 0, len(e.instruments))
	for _, inst := range e.instruments {
		instruments = append(instruments, *inst)
	}
	return &Snapshot{
		SavedAt:      e.now(),
		Cash:         e.ledger.Cash(),
		Holdings:     e.ledger.Holdings(),
		Orders:       e.book.All(),
		Transactions: e.txlog.Chronological(),
		Watchlist:    e.watch.List(),
		Instruments:  instruments,
	}
}

func describeOrder(o *model.Order) string {
	if o.Kind == model.OrderLimit {
		return fmt.Sprintf("%s %d %s at %s (limit)", o.Side, o.Qty, o.Symbol, model.Rupees(o.LimitPrice))
	}
	return fmt.Sprintf("%s %d %s at market price", o.Side, o.Qty, o.Symbol)
}
