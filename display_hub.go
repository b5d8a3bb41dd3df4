package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	displaySendBuffer = 8
	displayWriteWait  = 2 * time.Second
)

// RouteUpdate is what the display receives after every tick
type RouteUpdate struct {
	Route       *Route    `json:"route"`
	Direction   Cardinal  `json:"direction"`
	Glyph       string    `json:"glyph"`
	NoSafeRoute bool      `json:"noSafeRoute"`
	Alert       *Alert    `json:"alert,omitempty"`
	Hazard      float64   `json:"hazard"`
	RiskVersion uint64    `json:"riskVersion"`
	SentAt      time.Time `json:"sentAt"`
}

// displayClient is one connected display
type displayClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// DisplayHub pushes route updates to every connected display
type DisplayHub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*displayClient
	last    []byte
}

// NewDisplayHub creates an empty hub
func NewDisplayHub() *DisplayHub {
	return &DisplayHub{clients: make(map[uuid.UUID]*displayClient)}
}

// Len returns the number of connected displays
func (h *DisplayHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends the update to every display. Slow displays drop the
// message rather than stall the control loop.
func (h *DisplayHub) Broadcast(update RouteUpdate) {
	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("⚠️  Failed to marshal route update: %v\n", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = message
	for _, client := range h.clients {
		select {
		case client.send <- message:
		default:
		}
	}
}

// ServeWS upgrades the request and registers the display. A newly connected
// display immediately receives the latest update.
func (h *DisplayHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v\n", err)
		return
	}

	client := &displayClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, displaySendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	if h.last != nil {
		client.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	displayClients.Set(float64(count))
	log.Printf("🖥️  Display %s connected (%d total)\n", client.id, count)

	go h.readPump(client)
	go h.writePump(client)
}

// readPump drains the connection until the display goes away
func (h *DisplayHub) readPump(client *displayClient) {
	defer h.unregister(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *DisplayHub) writePump(client *displayClient) {
	for {
		select {
		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(displayWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				client.conn.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}

func (h *DisplayHub) unregister(client *displayClient) {
	h.mu.Lock()
	delete(h.clients, client.id)
	count := len(h.clients)
	h.mu.Unlock()

	close(client.done)
	client.conn.Close()

	displayClients.Set(float64(count))
	log.Printf("🖥️  Display %s disconnected (%d total)\n", client.id, count)
}

// Close disconnects every display
func (h *DisplayHub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.conn.Close()
	}
}
