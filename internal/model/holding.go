package model

// Holding is one portfolio position: net quantity with weighted-average cost
// basis. InvestedAmount is the cost basis in paise; AvgBuyPrice is
// InvestedAmount / Qty, re-derived on every buy and invariant across sells.
type Holding struct {
	InstrumentID   string `json:"instrument_id"`
	Symbol         string `json:"symbol"`
	Qty            int64  `json:"qty"`
	AvgBuyPrice    int64  `json:"avg_buy_price"`   // paise
	InvestedAmount int64  `json:"invested_amount"` // paise
}

// CurrentValue returns the position's market value at the given price.
func (h *Holding) CurrentValue(price int64) int64 {
	return h.Qty * price
}

// UnrealizedPnL returns market value minus cost basis at the given price.
func (h *Holding) UnrealizedPnL(price int64) int64 {
	return h.CurrentValue(price) - h.InvestedAmount
}
