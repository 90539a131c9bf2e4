// Package pricegen produces the simulated market tick: a bounded random walk
// applied to every instrument's current price, plus the derived day fields
// (change, change percent, day high/low, volume).
//
// The walk is a pure function of previous state plus the injected randomness,
// so tests construct a Walker from a fixed seed and get reproducible prices.
package pricegen

import (
	"math/rand"

	"papertradev1/internal/model"
)

const (
	// MinPrice floors every simulated price at 1 paisa so a price can never
	// reach zero or go negative.
	MinPrice = 1

	// DefaultMaxMovePct bounds each tick's percentage delta at ±1.5%.
	DefaultMaxMovePct = 1.5
)

// Walker applies the simulated price walk to instruments.
type Walker struct {
	rng *rand.Rand

	// MaxMovePct bounds the per-tick percentage delta (± this value).
	// Defaults to DefaultMaxMovePct.
	MaxMovePct float64
}

// New creates a Walker seeded for reproducible simulation.
func New(seed int64) *Walker {
	return &Walker{
		rng:        rand.New(rand.NewSource(seed)),
		MaxMovePct: DefaultMaxMovePct,
	}
}

// Step applies one simulated tick to the instrument in place.
// Always succeeds; the price is floored at MinPrice and day high/low widen
// monotonically.
func (w *Walker) Step(inst *model.Instrument) {
	pct := (w.rng.Float64()*2 - 1) * w.MaxMovePct / 100
	price := inst.CurrentPrice + int64(float64(inst.CurrentPrice)*pct)
	if price < MinPrice {
		price = MinPrice
	}

	inst.CurrentPrice = price
	inst.Change = price - inst.PreviousClose
	if inst.PreviousClose > 0 {
		inst.ChangePercent = float64(inst.Change) / float64(inst.PreviousClose) * 100
	}
	if price > inst.DayHigh {
		inst.DayHigh = price
	}
	if price < inst.DayLow || inst.DayLow == 0 {
		inst.DayLow = price
	}
	inst.Volume += int64(w.rng.Intn(100) + 1)
}

// DayRoll starts a new trading day for the instrument: the last traded price
// becomes the previous close and the day fields reset.
func (w *Walker) DayRoll(inst *model.Instrument) {
	inst.PreviousClose = inst.CurrentPrice
	inst.Open = inst.CurrentPrice
	inst.DayHigh = inst.CurrentPrice
	inst.DayLow = inst.CurrentPrice
	inst.Change = 0
	inst.ChangePercent = 0
	inst.Volume = 0
}
