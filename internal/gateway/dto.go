package gateway

import "papertradev1/internal/model"

// Envelope wraps every WebSocket message.
type Envelope struct {
	Type string      `json:"type"` // "quotes", "alert", "pong"
	Data interface{} `json:"data"`
	TS   string      `json:"ts"`
}

// PlaceOrderIn is the REST request body for POST /api/v1/orders.
// Prices are paise.
type PlaceOrderIn struct {
	Side         string `json:"side"` // BUY, SELL
	Kind         string `json:"kind"` // MARKET, LIMIT
	InstrumentID string `json:"instrument_id"`
	Qty          int64  `json:"qty"`
	LimitPrice   int64  `json:"limit_price,omitempty"`
}

// HoldingOut is one portfolio position enriched with live prices.
type HoldingOut struct {
	model.Holding
	LastPrice     int64 `json:"last_price"`    // paise
	CurrentValue  int64 `json:"current_value"` // paise
	UnrealizedPnL int64 `json:"unrealized_pnl"`
}

// PortfolioOut is the REST response for GET /api/v1/portfolio.
type PortfolioOut struct {
	Cash          int64        `json:"cash"` // paise
	InvestedTotal int64        `json:"invested_total"`
	CurrentValue  int64        `json:"current_value"`
	UnrealizedPnL int64        `json:"unrealized_pnl"`
	Holdings      []HoldingOut `json:"holdings"`
}

// MarketOut is the REST response for GET /api/v1/market.
type MarketOut struct {
	Open   bool   `json:"open"`
	Status string `json:"status"`
}

// ErrorOut is the REST error body. Reason is set for order rejections.
type ErrorOut struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
