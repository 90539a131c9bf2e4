// cmd/quotefeed — Standalone demo quote broadcaster.
//
// Streams the simulated NSE catalog over WebSocket without the trading
// engine, for frontend development and load testing.
//
// Quote JSON shape is identical to model.Instrument; prices are paise.
//
// Config (env vars):
//
//	QUOTEFEED_ADDR    — listen address              (default: ":9001")
//	TICK_INTERVAL_MS  — broadcast interval millis   (default: "3000")
//	PRICE_SEED        — random walk seed, 0 = clock (default: "0")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"papertradev1/internal/model"
	"papertradev1/internal/pricegen"
)

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop quote
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[quotefeed] upgrade error: %v", err)
			return
		}
		log.Printf("[quotefeed] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[quotefeed] client disconnected: %s", r.RemoteAddr)
		}()

		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func runGenerator(h *hub, walker *pricegen.Walker, instruments []model.Instrument, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		for i := range instruments {
			walker.Step(&instruments[i])
		}
		b, err := json.Marshal(instruments)
		if err != nil {
			continue
		}
		h.broadcast(b)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[quotefeed] starting demo quote feed...")

	addr := envOrDefault("QUOTEFEED_ADDR", ":9001")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 3000)
	seed := int64(envIntOrDefault("PRICE_SEED", 0))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	instruments := pricegen.Catalog()
	log.Printf("[quotefeed] %d instruments, broadcast interval %dms", len(instruments), intervalMs)

	h := newHub()
	go runGenerator(h, pricegen.New(seed), instruments, time.Duration(intervalMs)*time.Millisecond)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"quotefeed"}`)
	})

	log.Printf("[quotefeed] listening on %s (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[quotefeed] server error: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
