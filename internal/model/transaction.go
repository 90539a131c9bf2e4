package model

import "time"

// Transaction records one executed fill. Total is always Qty * Price;
// transactions are immutable once recorded.
type Transaction struct {
	ID           string    `json:"id"`
	Side         Side      `json:"side"`
	InstrumentID string    `json:"instrument_id"`
	Symbol       string    `json:"symbol"`
	Qty          int64     `json:"qty"`
	Price        int64     `json:"price"` // paise, per share
	Total        int64     `json:"total"` // paise
	Timestamp    time.Time `json:"timestamp"`
}
