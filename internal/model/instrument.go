package model

// Instrument represents a tradeable simulated security.
// Identity fields (ID, Symbol, Name, Exchange) are immutable; the market
// snapshot fields are mutated only by the price tick handler.
// Prices are stored as int64 in paise (1 INR = 100 paise) to avoid float drift.
type Instrument struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`

	CurrentPrice  int64   `json:"current_price"`  // paise (LTP)
	PreviousClose int64   `json:"previous_close"` // paise
	Open          int64   `json:"open"`           // paise
	DayHigh       int64   `json:"day_high"`       // paise
	DayLow        int64   `json:"day_low"`        // paise
	Change        int64   `json:"change"`         // paise, vs previous close
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"` // shares traded today (simulated)
}

// Key returns a unique key for this instrument: "exchange:symbol".
func (i *Instrument) Key() string {
	return i.Exchange + ":" + i.Symbol
}
