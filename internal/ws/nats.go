package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

const userSubjectPrefix = "realtime.user"

// natsEnvelope is the cross-process event frame.
type natsEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NATSRegistry fans user events out across processes. Register/Deregister
// stay local; EmitToUser publishes to a per-user subject and every process,
// this one included, delivers to its own hub on receipt. Without it the hub
// alone serves single-process deployments.
type NATSRegistry struct {
	hub *Hub
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewNATSRegistry connects the hub to a NATS-backed fan-out.
func NewNATSRegistry(hub *Hub, url string) (*NATSRegistry, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	r := &NATSRegistry{hub: hub, nc: nc}
	sub, err := nc.Subscribe(userSubjectPrefix+".>", r.deliver)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s.>: %w", userSubjectPrefix, err)
	}
	r.sub = sub
	return r, nil
}

// Register adds the connection to the local hub.
func (r *NATSRegistry) Register(userID int, conn *websocket.Conn, info ConnInfo) {
	r.hub.Register(userID, conn, info)
}

// Deregister removes the connection from the local hub.
func (r *NATSRegistry) Deregister(userID int, conn *websocket.Conn) {
	r.hub.Deregister(userID, conn)
}

// EmitToUser publishes the event; local delivery happens through the
// subscription like on every other process.
func (r *NATSRegistry) EmitToUser(userID int, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("nats emit marshal error: %v", err)
		return
	}
	frame, err := json.Marshal(natsEnvelope{Event: event, Payload: body})
	if err != nil {
		log.Printf("nats emit marshal error: %v", err)
		return
	}
	subject := fmt.Sprintf("%s.%d", userSubjectPrefix, userID)
	if err := r.nc.Publish(subject, frame); err != nil {
		// Best-effort: fall back to local delivery so a broker outage does
		// not silence connected clients on this process.
		log.Printf("nats publish failed, delivering locally: %v", err)
		r.hub.EmitToUser(userID, event, payload)
	}
}

func (r *NATSRegistry) deliver(msg *nats.Msg) {
	idPart := strings.TrimPrefix(msg.Subject, userSubjectPrefix+".")
	userID, err := strconv.Atoi(idPart)
	if err != nil {
		log.Printf("nats deliver: bad subject %q", msg.Subject)
		return
	}
	var envelope natsEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		log.Printf("nats deliver unmarshal error: %v", err)
		return
	}
	r.hub.EmitToUser(userID, envelope.Event, envelope.Payload)
}

// Close drops the subscription and connection.
func (r *NATSRegistry) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if r.nc != nil {
		r.nc.Close()
	}
}
