package engine

import (
	"context"
	"time"

	"papertradev1/internal/model"
)

// Snapshot is the full serializable state bundle: everything needed to
// rehydrate the engine at startup. Timestamps round-trip via RFC 3339 with
// nanoseconds; all money fields are integer paise, so serialization is
// lossless.
type Snapshot struct {
	SavedAt      time.Time           `json:"saved_at"`
	Cash         int64               `json:"cash"`
	Holdings     []model.Holding     `json:"holdings"`
	Orders       []model.Order       `json:"orders"` // creation order
	Transactions []model.Transaction `json:"transactions"`
	Watchlist    []string            `json:"watchlist"`
	Instruments  []model.Instrument  `json:"instruments"`
}

// query runs fn inside the event loop so the read observes a consistent
// state between mutations.
func (e *Engine) query(ctx context.Context, fn func(*Engine)) error {
	_, err := e.do(ctx, queryCmd{fn: fn})
	return err
}

// Cash returns the current cash balance in paise.
func (e *Engine) Cash(ctx context.Context) (int64, error) {
	var cash int64
	err := e.query(ctx, func(e *Engine) { cash = e.ledger.Cash() })
	return cash, err
}

// Holdings returns a copy of all holdings.
func (e *Engine) Holdings(ctx context.Context) ([]model.Holding, error) {
	var out []model.Holding
	err := e.query(ctx, func(e *Engine) { out = e.ledger.Holdings() })
	return out, err
}

// Orders returns all orders, most recent first.
func (e *Engine) Orders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	err := e.query(ctx, func(e *Engine) { out = e.book.Orders() })
	return out, err
}

// Transactions returns executed fills, most recent first. A non-empty
// instrumentID filters to that instrument.
func (e *Engine) Transactions(ctx context.Context, instrumentID string) ([]model.Transaction, error) {
	var out []model.Transaction
	err := e.query(ctx, func(e *Engine) {
		if instrumentID == "" {
			out = e.txlog.All()
		} else {
			out = e.txlog.ByInstrument(instrumentID)
		}
	})
	return out, err
}

// Watchlist returns the watched instrument IDs in insertion order.
func (e *Engine) Watchlist(ctx context.Context) ([]string, error) {
	var out []string
	err := e.query(ctx, func(e *Engine) { out = e.watch.List() })
	return out, err
}

// Instruments returns the live instrument table snapshot.
func (e *Engine) Instruments(ctx context.Context) ([]model.Instrument, error) {
	var out []model.Instrument
	err := e.query(ctx, func(e *Engine) {
		out = make([]model.Instrument, 0, len(e.instruments))
		for _, inst := range e.instruments {
			out = append(out, *inst)
		}
	})
	return out, err
}

// Instrument returns one instrument by ID.
func (e *Engine) Instrument(ctx context.Context, id string) (model.Instrument, bool, error) {
	var (
		out   model.Instrument
		found bool
	)
	err := e.query(ctx, func(e *Engine) {
		if inst, ok := e.instIdx[id]; ok {
			out, found = *inst, true
		}
	})
	return out, found, err
}

// MarketStatus reports whether the session is open and a display string.
func (e *Engine) MarketStatus(ctx context.Context) (bool, string, error) {
	var (
		open   bool
		status string
	)
	err := e.query(ctx, func(e *Engine) {
		now := e.now()
		open = e.session.IsOpen(now)
		status = e.session.Status(now)
	})
	return open, status, err
}

// StateSnapshot returns the full state bundle (round-trip tests, debugging).
func (e *Engine) StateSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := e.query(ctx, func(e *Engine) { snap = e.buildSnapshot() })
	return snap, err
}
