package models

import "time"

// MessageType classifies the payload of a chat message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeOffer MessageType = "offer"
)

// ValidMessageType reports whether t belongs to the closed enum.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeOffer:
		return true
	}
	return false
}

// MaxContentLength bounds message content.
const MaxContentLength = 1000

// OfferStatus tracks the lifecycle of an offer message.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// Offer is the optional payload carried by an offer-type message.
type Offer struct {
	Amount    float64     `json:"amount"`
	Currency  string      `json:"currency"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	Status    OfferStatus `json:"status"`
}

// Attachment is a binary file submitted alongside a message.
type Attachment struct {
	ID          int    `db:"id" json:"id"`
	MessageID   int    `db:"message_id" json:"message_id"`
	Filename    string `db:"filename" json:"filename"`
	ContentType string `db:"content_type" json:"content_type"`
	Data        []byte `db:"data" json:"data,omitempty"`
}

// Message is a single message between two users about a property listing.
// Sender, receiver, property and content are immutable after creation;
// only the read state ever changes.
type Message struct {
	ID          int          `db:"id" json:"id"`
	SenderID    int          `db:"sender_id" json:"sender_id"`
	ReceiverID  int          `db:"receiver_id" json:"receiver_id"`
	PropertyID  int          `db:"property_id" json:"property_id"`
	Content     string       `db:"content" json:"content"`
	MessageType MessageType  `db:"message_type" json:"message_type"`
	IsRead      bool         `db:"is_read" json:"is_read"`
	ReadAt      *time.Time   `db:"read_at" json:"read_at,omitempty"`
	Offer       *Offer       `db:"-" json:"offer,omitempty"`
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
