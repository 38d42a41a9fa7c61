package ws

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestHubRegisterAndDeregister(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}

	hub.Register(1, conn, ConnInfo{ConnID: "c1", UserID: 1})
	if hub.ConnectionCount(1) != 1 {
		t.Fatalf("expected one connection for user 1")
	}

	hub.Deregister(1, conn)
	if hub.ConnectionCount(1) != 0 {
		t.Fatalf("expected connection to be removed")
	}
	if len(hub.connections) != 0 {
		t.Fatalf("expected empty user entry to be removed")
	}
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	tab := &websocket.Conn{}
	phone := &websocket.Conn{}

	hub.Register(1, tab, ConnInfo{ConnID: "tab", UserID: 1})
	hub.Register(1, phone, ConnInfo{ConnID: "phone", UserID: 1})
	if hub.ConnectionCount(1) != 2 {
		t.Fatalf("expected two connections for user 1, got %d", hub.ConnectionCount(1))
	}

	hub.Deregister(1, tab)
	if hub.ConnectionCount(1) != 1 {
		t.Fatalf("expected one connection to remain")
	}
}

func TestHubRegisterSameConnectionTwice(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}

	hub.Register(1, conn, ConnInfo{ConnID: "c1", UserID: 1})
	hub.Register(1, conn, ConnInfo{ConnID: "c1", UserID: 1})
	if hub.ConnectionCount(1) != 1 {
		t.Fatalf("expected re-registration to be a no-op")
	}
}

func TestHubEmitToAbsentUser(t *testing.T) {
	hub := NewHub()

	// No connections registered: the emit must drop silently.
	hub.EmitToUser(42, "message_received", map[string]int{"id": 1})
	if len(hub.connections) != 0 {
		t.Fatalf("expected hub to stay empty")
	}
}
