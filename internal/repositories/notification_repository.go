package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationColumns = `id, recipient_id, sender_id, type, title, message,
    related_property_id, related_message_id, is_read, read_at, action_url, priority, created_at`

// NotificationRepository abstracts notification persistence.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	Get(ctx context.Context, notificationID int) (models.Notification, error)
	ListForUser(ctx context.Context, userID, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) (int, error)
	CountUnread(ctx context.Context, userID int) (int, error)
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create persists a notification. It is always created unread.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	priority := n.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	var stored models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications
        (recipient_id, sender_id, type, title, message,
         related_property_id, related_message_id, action_url, priority)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+notificationColumns,
		n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
		n.RelatedPropertyID, n.RelatedMessageID, n.ActionURL, priority).StructScan(&stored)
	return stored, err
}

// Get retrieves a single notification.
func (r *NotificationRepo) Get(ctx context.Context, notificationID int) (models.Notification, error) {
	var n models.Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, ErrNotificationNotFound
	}
	return n, err
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID, limit int, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id=$1`
	if unreadOnly {
		query += ` AND is_read=FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, query, userID, limit)
	return list, err
}

// MarkRead flips one notification to read; idempotent.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read=TRUE, read_at=NOW()
        WHERE id=$1 AND is_read=FALSE`, notificationID)
	return err
}

// MarkAllRead marks every unread notification addressed to the user as read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read=TRUE, read_at=NOW()
        WHERE recipient_id=$1 AND is_read=FALSE`, userID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// CountUnread counts unread notifications addressed to the user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications
        WHERE recipient_id=$1 AND is_read=FALSE`, userID)
	return count, err
}
