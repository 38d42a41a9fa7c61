package models

import "time"

// UserInfo is the display data the user directory exposes for a participant.
type UserInfo struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
}

// PropertyInfo is the display data the listing store exposes for a property.
type PropertyInfo struct {
	ID           int    `db:"id" json:"id"`
	OwnerID      int    `db:"owner_id" json:"owner_id"`
	Title        string `db:"title" json:"title"`
	ThumbnailURL string `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
}

// Conversation is the derived grouping of all messages between two users
// about one property. It is recomputed on every list request and never stored.
type Conversation struct {
	PropertyID    int          `json:"property_id"`
	CounterpartID int          `json:"counterpart_id"`
	LastMessage   Message      `json:"last_message"`
	UnreadCount   int          `json:"unread_count"`
	Counterpart   UserInfo     `json:"counterpart"`
	Property      PropertyInfo `json:"property"`
}

// RealtimeEvent is the envelope written to websocket connections.
type RealtimeEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Event names pushed over the realtime channel.
const (
	EventMessageReceived      = "message_received"
	EventNotificationReceived = "notification_received"
)

// MessageEvent carries a freshly persisted message plus minimal property context.
type MessageEvent struct {
	Message  Message      `json:"message"`
	Property PropertyInfo `json:"property"`
}

// NotificationEvent carries the display fields of a new notification.
type NotificationEvent struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ActionURL string           `json:"action_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
