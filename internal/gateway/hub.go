// Package gateway is the presentation-layer boundary: a WebSocket hub that
// streams quote and notification envelopes to connected clients, plus the
// REST command/query API over the engine.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"papertradev1/internal/metrics"
	"papertradev1/internal/model"
	"papertradev1/internal/notification"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Hub manages WebSocket clients and fans engine events out to them.
// It implements notification.Notifier so the engine can stream alerts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// latest quote envelope, replayed to newly connected clients
	latestQuotes json.RawMessage
	latestTS     time.Time

	metrics *metrics.Metrics // optional, WSClients gauge
}

var _ notification.Notifier = (*Hub)(nil)

// NewHub creates a Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		metrics: m,
	}
}

// BroadcastQuotes fans a quote snapshot out to every client and caches it
// for the initial state of future connections.
func (h *Hub) BroadcastQuotes(quotes []model.Instrument) {
	envelope, err := json.Marshal(Envelope{
		Type: "quotes",
		Data: quotes,
		TS:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.latestQuotes = envelope
	h.latestTS = time.Now()
	h.mu.Unlock()

	h.broadcast(envelope)
}

// Send broadcasts a notification alert envelope. Implements
// notification.Notifier; never blocks on slow clients.
func (h *Hub) Send(ctx context.Context, alert notification.Alert) error {
	envelope, err := json.Marshal(Envelope{
		Type: "alert",
		Data: alert,
		TS:   alert.At.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	h.broadcast(envelope)
	return nil
}

// broadcast delivers a message to all clients, dropping it for any client
// whose send buffer is full so a slow consumer cannot block the engine.
func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default: // slow client — drop
		}
	}
}

// HandleWS upgrades the HTTP connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade error: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
