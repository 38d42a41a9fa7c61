package models

import "time"

// NotificationType is the closed set of events a notification may describe.
type NotificationType string

const (
	NotificationNewMessage             NotificationType = "new_message"
	NotificationPropertyApproved       NotificationType = "property_approved"
	NotificationPropertyRejected       NotificationType = "property_rejected"
	NotificationPropertyApprovalNeeded NotificationType = "property_approval_needed"
	NotificationNewPropertyMatch       NotificationType = "new_property_match"
	NotificationOfferReceived          NotificationType = "offer_received"
	NotificationOfferAccepted          NotificationType = "offer_accepted"
	NotificationOfferRejected          NotificationType = "offer_rejected"
	NotificationPropertySold           NotificationType = "property_sold"
	NotificationPropertyRented         NotificationType = "property_rented"
)

// ValidNotificationType reports whether t belongs to the closed enum.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationNewMessage, NotificationPropertyApproved, NotificationPropertyRejected,
		NotificationPropertyApprovalNeeded, NotificationNewPropertyMatch,
		NotificationOfferReceived, NotificationOfferAccepted, NotificationOfferRejected,
		NotificationPropertySold, NotificationPropertyRented:
		return true
	}
	return false
}

// NotificationPriority orders notifications for display.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

const (
	MaxNotificationTitleLength   = 100
	MaxNotificationMessageLength = 500
)

// Notification is a persisted notification addressed to one user.
// SenderID is nil for system-generated notifications.
type Notification struct {
	ID                int                  `db:"id" json:"id"`
	RecipientID       int                  `db:"recipient_id" json:"recipient_id"`
	SenderID          *int                 `db:"sender_id" json:"sender_id,omitempty"`
	Type              NotificationType     `db:"type" json:"type"`
	Title             string               `db:"title" json:"title"`
	Message           string               `db:"message" json:"message"`
	RelatedPropertyID *int                 `db:"related_property_id" json:"related_property_id,omitempty"`
	RelatedMessageID  *int                 `db:"related_message_id" json:"related_message_id,omitempty"`
	IsRead            bool                 `db:"is_read" json:"is_read"`
	ReadAt            *time.Time           `db:"read_at" json:"read_at,omitempty"`
	ActionURL         *string              `db:"action_url" json:"action_url,omitempty"`
	Priority          NotificationPriority `db:"priority" json:"priority"`
	CreatedAt         time.Time            `db:"created_at" json:"created_at"`
}
