package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"papertradev1/internal/engine"
	"papertradev1/internal/model"
	"papertradev1/internal/orderbook"
)

// API serves the REST command/query surface on top of the engine.
type API struct {
	engine *engine.Engine
	hub    *Hub
}

// NewAPI creates the REST API handler set.
func NewAPI(e *engine.Engine, hub *Hub) *API {
	return &API{engine: e, hub: hub}
}

// Routes registers all endpoints on a fresh mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", a.handleHealth)
	mux.HandleFunc("/api/v1/market", a.handleMarket)
	mux.HandleFunc("/api/v1/instruments", a.handleInstruments)
	mux.HandleFunc("/api/v1/instruments/", a.handleInstrument)
	mux.HandleFunc("/api/v1/portfolio", a.handlePortfolio)
	mux.HandleFunc("/api/v1/portfolio/reset", a.handleReset)
	mux.HandleFunc("/api/v1/orders", a.handleOrders)
	mux.HandleFunc("/api/v1/orders/", a.handleOrderByID)
	mux.HandleFunc("/api/v1/transactions", a.handleTransactions)
	mux.HandleFunc("/api/v1/watchlist", a.handleWatchlist)
	mux.HandleFunc("/api/v1/watchlist/", a.handleWatchlistItem)
	mux.HandleFunc("/ws", a.hub.HandleWS)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[gateway] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, ErrorOut{Error: msg, Reason: reason})
}

// writeOrderError maps engine/order book errors onto HTTP statuses.
func writeOrderError(w http.ResponseWriter, err error) {
	if reason, ok := orderbook.Rejected(err); ok {
		status := http.StatusUnprocessableEntity
		switch reason {
		case orderbook.RejectUnknownInstrument:
			status = http.StatusNotFound
		case orderbook.RejectInvalidQuantity, orderbook.RejectInvalidLimitPrice:
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error(), string(reason))
		return
	}
	switch {
	case errors.Is(err, orderbook.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, orderbook.ErrNotCancelable):
		writeError(w, http.StatusConflict, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ws_clients": a.hub.ClientCount(),
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleMarket(w http.ResponseWriter, r *http.Request) {
	open, status, err := a.engine.MarketStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, MarketOut{Open: open, Status: status})
}

func (a *API) handleInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := a.engine.Instruments(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, instruments)
}

func (a *API) handleInstrument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/instruments/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "instrument id required", "")
		return
	}
	inst, ok, err := a.engine.Instrument(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "unknown instrument: "+id, "")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (a *API) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := a.engine.StateSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}

	prices := make(map[string]int64, len(snap.Instruments))
	for i := range snap.Instruments {
		prices[snap.Instruments[i].ID] = snap.Instruments[i].CurrentPrice
	}

	out := PortfolioOut{Cash: snap.Cash, Holdings: make([]HoldingOut, 0, len(snap.Holdings))}
	for _, h := range snap.Holdings {
		price := prices[h.InstrumentID]
		value := h.CurrentValue(price)
		out.InvestedTotal += h.InvestedAmount
		out.CurrentValue += value
		out.Holdings = append(out.Holdings, HoldingOut{
			Holding:       h,
			LastPrice:     price,
			CurrentValue:  value,
			UnrealizedPnL: h.UnrealizedPnL(price),
		})
	}
	out.UnrealizedPnL = out.CurrentValue - out.InvestedTotal
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required", "")
		return
	}
	if err := a.engine.ResetPortfolio(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		orders, err := a.engine.Orders(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error(), "")
			return
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodPost:
		a.handlePlaceOrder(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required", "")
	}
}

func (a *API) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in PlaceOrderIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "")
		return
	}

	side, ok := parseSide(in.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY or SELL", "")
		return
	}
	kind, ok := parseKind(in.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be MARKET or LIMIT", "")
		return
	}

	order, err := a.engine.PlaceOrder(r.Context(), orderbook.PlaceRequest{
		Side:         side,
		Kind:         kind,
		InstrumentID: in.InstrumentID,
		Qty:          in.Qty,
		LimitPrice:   in.LimitPrice,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "order id required", "")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "DELETE required", "")
		return
	}
	order, err := a.engine.CancelOrder(r.Context(), id)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.engine.Transactions(r.Context(), r.URL.Query().Get("instrument"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (a *API) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ids, err := a.engine.Watchlist(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error(), "")
			return
		}
		writeJSON(w, http.StatusOK, ids)
	case http.MethodPost:
		var in struct {
			InstrumentID string `json:"instrument_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.InstrumentID == "" {
			writeError(w, http.StatusBadRequest, "instrument_id required", "")
			return
		}
		if err := a.engine.AddToWatchlist(r.Context(), in.InstrumentID); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error(), "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "watched"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required", "")
	}
}

func (a *API) handleWatchlistItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/watchlist/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "instrument id required", "")
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "DELETE required", "")
		return
	}
	if err := a.engine.RemoveFromWatchlist(r.Context(), id); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unwatched"})
}

func parseSide(s string) (model.Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(model.SideBuy):
		return model.SideBuy, true
	case string(model.SideSell):
		return model.SideSell, true
	}
	return "", false
}

func parseKind(s string) (model.OrderKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(model.OrderMarket), "":
		return model.OrderMarket, true
	case string(model.OrderLimit):
		return model.OrderLimit, true
	}
	return "", false
}
