package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// Emitter pushes an event to every live connection a user currently holds.
// Delivery is best-effort: no connection, no delivery, no error.
type Emitter interface {
	EmitToUser(userID int, event string, payload any)
}

// Registry is the presence registry contract: connections register under the
// owning user id and are removed on teardown.
type Registry interface {
	Emitter
	Register(userID int, conn *websocket.Conn, info ConnInfo)
	Deregister(userID int, conn *websocket.Conn)
}

// Hub is the in-memory Registry. A user may hold any number of simultaneous
// connections (multi-tab, multi-device); emitting to the user writes to all
// of them.
type Hub struct {
	connections map[int]map[*websocket.Conn]ConnInfo
	mu          sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[int]map[*websocket.Conn]ConnInfo)}
}

// Register adds a connection under the user id. Registering the same
// connection twice is a no-op.
func (h *Hub) Register(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[userID]; !ok {
		h.connections[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connections[userID][conn] = info
}

// Deregister removes a connection. The data model is untouched; a user with
// no connections simply receives nothing until the next poll.
func (h *Hub) Deregister(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.connections[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, userID)
		}
	}
}

// ConnectionCount reports how many live connections the user holds.
func (h *Hub) ConnectionCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// EmitToUser delivers the event to every live connection registered under
// userID. A write failure tears down that one connection; it never propagates
// to the caller because the durable write already happened upstream.
func (h *Hub) EmitToUser(userID int, event string, payload any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.connections[userID]))
	for conn := range h.connections[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		observability.IncWSEvent("user", "emit_dropped")
		return
	}

	envelope, err := json.Marshal(models.RealtimeEvent{Event: event, Payload: payload})
	if err != nil {
		log.Printf("realtime marshal error: %v", err)
		return
	}

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, envelope); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Deregister(userID, conn)
			observability.IncWSEvent("user", "ws_error")
		}
	}
	observability.IncWSEvent("user", "emit_"+event)
}
