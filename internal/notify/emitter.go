// Package notify implements notification fan-out: one persisted record per
// triggering event, then a best-effort realtime push to the recipient.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"messaging-service/internal/cache"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
	"messaging-service/internal/ws"
)

var (
	ErrInvalidType    = errors.New("invalid notification type")
	ErrTitleTooLong   = errors.New("notification title too long")
	ErrMessageTooLong = errors.New("notification message too long")
)

// Emitter creates notifications and pushes them to connected recipients.
// Persistence is the primary effect; the push never fails the emission.
type Emitter struct {
	repo     repositories.NotificationRepository
	realtime ws.Emitter
	unread   *cache.CountCache
}

// NewEmitter constructs an Emitter.
func NewEmitter(repo repositories.NotificationRepository, realtime ws.Emitter, unread *cache.CountCache) *Emitter {
	return &Emitter{repo: repo, realtime: realtime, unread: unread}
}

// Notify validates, persists and pushes one notification. The returned error
// only ever concerns the persisted write; push and cache maintenance are
// best-effort side effects.
func (e *Emitter) Notify(ctx context.Context, n models.Notification) (models.Notification, error) {
	if !models.ValidNotificationType(n.Type) {
		return models.Notification{}, ErrInvalidType
	}
	// Bounds are in characters, matching the varchar columns.
	if utf8.RuneCountInString(n.Title) > models.MaxNotificationTitleLength {
		return models.Notification{}, ErrTitleTooLong
	}
	if utf8.RuneCountInString(n.Message) > models.MaxNotificationMessageLength {
		return models.Notification{}, ErrMessageTooLong
	}

	stored, err := e.repo.Create(ctx, n)
	if err != nil {
		observability.IncNotificationEmitted(string(n.Type), "store_error")
		return models.Notification{}, err
	}
	observability.IncNotificationEmitted(string(n.Type), "stored")

	e.unread.Invalidate(ctx, stored.RecipientID, cache.KeyUnreadNotifications)

	if e.realtime != nil {
		actionURL := ""
		if stored.ActionURL != nil {
			actionURL = *stored.ActionURL
		}
		e.realtime.EmitToUser(stored.RecipientID, models.EventNotificationReceived, models.NotificationEvent{
			Type:      stored.Type,
			Title:     stored.Title,
			Message:   stored.Message,
			ActionURL: actionURL,
			CreatedAt: stored.CreatedAt,
		})
	}

	return stored, nil
}

// NewMessage emits the notification for a freshly sent message. Offer sends
// surface as offer_received so badge copy can distinguish them.
func (e *Emitter) NewMessage(ctx context.Context, msg models.Message, property models.PropertyInfo, sender models.UserInfo) (models.Notification, error) {
	notifType := models.NotificationNewMessage
	title := "New Message"
	text := fmt.Sprintf("%s sent you a message about %q", sender.Name, property.Title)
	if msg.MessageType == models.MessageTypeOffer {
		notifType = models.NotificationOfferReceived
		title = "Offer Received"
		text = fmt.Sprintf("%s made you an offer on %q", sender.Name, property.Title)
	}

	actionURL := fmt.Sprintf("/chat/%d/%d", msg.PropertyID, msg.SenderID)
	return e.Notify(ctx, models.Notification{
		RecipientID:       msg.ReceiverID,
		SenderID:          &msg.SenderID,
		Type:              notifType,
		Title:             title,
		Message:           truncate(text, models.MaxNotificationMessageLength),
		RelatedPropertyID: &msg.PropertyID,
		RelatedMessageID:  &msg.ID,
		ActionURL:         &actionURL,
	})
}

// PropertyApproved notifies the listing owner of an approval.
func (e *Emitter) PropertyApproved(ctx context.Context, property models.PropertyInfo, ownerID, moderatorID int) (models.Notification, error) {
	text := fmt.Sprintf("Your property %q has been approved and is now live", property.Title)
	return e.Notify(ctx, models.Notification{
		RecipientID:       ownerID,
		SenderID:          &moderatorID,
		Type:              models.NotificationPropertyApproved,
		Title:             "Property Approved",
		Message:           truncate(text, models.MaxNotificationMessageLength),
		RelatedPropertyID: &property.ID,
	})
}

// PropertyRejected notifies the listing owner of a rejection; the reason is
// embedded in the notification message.
func (e *Emitter) PropertyRejected(ctx context.Context, property models.PropertyInfo, ownerID, moderatorID int, reason string) (models.Notification, error) {
	text := fmt.Sprintf("Your property %q has been rejected. Reason: %s", property.Title, reason)
	return e.Notify(ctx, models.Notification{
		RecipientID:       ownerID,
		SenderID:          &moderatorID,
		Type:              models.NotificationPropertyRejected,
		Title:             "Property Rejected",
		Message:           truncate(text, models.MaxNotificationMessageLength),
		RelatedPropertyID: &property.ID,
		Priority:          models.PriorityHigh,
	})
}

// PropertySubmitted fans out an approval request to every moderator. Partial
// failure keeps going; one admin's store error should not starve the rest.
func (e *Emitter) PropertySubmitted(ctx context.Context, property models.PropertyInfo, submitter models.UserInfo, adminIDs []int) []models.Notification {
	actionURL := fmt.Sprintf("/admin/properties/%d", property.ID)
	text := fmt.Sprintf("%s has submitted a new property for approval", submitter.Name)

	created := make([]models.Notification, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		n, err := e.Notify(ctx, models.Notification{
			RecipientID:       adminID,
			SenderID:          &submitter.ID,
			Type:              models.NotificationPropertyApprovalNeeded,
			Title:             "New Property Pending Approval",
			Message:           truncate(text, models.MaxNotificationMessageLength),
			RelatedPropertyID: &property.ID,
			ActionURL:         &actionURL,
		})
		if err != nil {
			log.Printf("approval-needed notification for admin %d failed: %v", adminID, err)
			continue
		}
		created = append(created, n)
	}
	return created
}

// truncate caps s at max characters, never splitting a multibyte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
