package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender_id, receiver_id, property_id, content, message_type,
    is_read, read_at, offer_amount, offer_currency, offer_expires_at, offer_status, created_at`

// CreateMessageParams carries everything needed to append a message.
type CreateMessageParams struct {
	SenderID    int
	ReceiverID  int
	PropertyID  int
	Content     string
	MessageType models.MessageType
	Offer       *models.Offer
	Attachments []models.Attachment
}

// MessageRepository defines interactions with the message log.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListThread(ctx context.Context, propertyID, viewerID, counterpartID, page, limit int) ([]models.Message, int, error)
	MarkThreadRead(ctx context.Context, propertyID, counterpartID, viewerID int) (int, error)
	ListForUser(ctx context.Context, userID int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID int) error
	MarkAllRead(ctx context.Context, userID int) (int, error)
	CountUnread(ctx context.Context, userID int) (int, error)
}

// MessageRepo is a sqlx-backed repository over the append-only message log.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// messageRow maps one messages row including the nullable offer columns.
type messageRow struct {
	models.Message
	OfferAmount    sql.NullFloat64 `db:"offer_amount"`
	OfferCurrency  sql.NullString  `db:"offer_currency"`
	OfferExpiresAt sql.NullTime    `db:"offer_expires_at"`
	OfferStatus    sql.NullString  `db:"offer_status"`
}

func (r messageRow) toMessage() models.Message {
	msg := r.Message
	if r.OfferStatus.Valid {
		offer := models.Offer{
			Amount:   r.OfferAmount.Float64,
			Currency: r.OfferCurrency.String,
			Status:   models.OfferStatus(r.OfferStatus.String),
		}
		if r.OfferExpiresAt.Valid {
			expires := r.OfferExpiresAt.Time
			offer.ExpiresAt = &expires
		}
		msg.Offer = &offer
	}
	return msg
}

// CreateMessage appends a message, with its attachments, in one transaction.
// The message is created unread; nothing else about it ever mutates.
func (r *MessageRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var offerAmount sql.NullFloat64
	var offerCurrency, offerStatus sql.NullString
	var offerExpiresAt sql.NullTime
	if params.Offer != nil {
		offerAmount = sql.NullFloat64{Float64: params.Offer.Amount, Valid: true}
		offerCurrency = sql.NullString{String: params.Offer.Currency, Valid: true}
		status := params.Offer.Status
		if status == "" {
			status = models.OfferStatusPending
		}
		offerStatus = sql.NullString{String: string(status), Valid: true}
		if params.Offer.ExpiresAt != nil {
			offerExpiresAt = sql.NullTime{Time: *params.Offer.ExpiresAt, Valid: true}
		}
	}

	var row messageRow
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages
        (sender_id, receiver_id, property_id, content, message_type,
         offer_amount, offer_currency, offer_expires_at, offer_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+messageColumns,
		params.SenderID, params.ReceiverID, params.PropertyID, params.Content, params.MessageType,
		offerAmount, offerCurrency, offerExpiresAt, offerStatus).StructScan(&row)
	if err != nil {
		return models.Message{}, err
	}

	msg := row.toMessage()
	for _, att := range params.Attachments {
		var stored models.Attachment
		err = tx.QueryRowxContext(ctx, `INSERT INTO message_attachments (message_id, filename, content_type, data)
            VALUES ($1, $2, $3, $4) RETURNING id, message_id, filename, content_type, data`,
			msg.ID, att.Filename, att.ContentType, att.Data).StructScan(&stored)
		if err != nil {
			return models.Message{}, err
		}
		msg.Attachments = append(msg.Attachments, stored)
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return row.toMessage(), nil
}

// ListThread returns one page of messages between viewer and counterpart for a
// property, newest first, along with the total count across all pages.
func (r *MessageRepo) ListThread(ctx context.Context, propertyID, viewerID, counterpartID, page, limit int) ([]models.Message, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages
        WHERE property_id=$1
        AND ((sender_id=$2 AND receiver_id=$3) OR (sender_id=$3 AND receiver_id=$2))
        ORDER BY created_at DESC, id DESC
        LIMIT $4 OFFSET $5`, propertyID, viewerID, counterpartID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages
        WHERE property_id=$1
        AND ((sender_id=$2 AND receiver_id=$3) OR (sender_id=$3 AND receiver_id=$2))`,
		propertyID, viewerID, counterpartID)
	if err != nil {
		return nil, 0, err
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, total, nil
}

// MarkThreadRead marks every unread message from counterpart to viewer within
// the property thread as read. The update is scoped by the same filter as the
// thread query and applied in a single statement, so a message inserted after
// the thread snapshot still matches only if it is genuinely part of the thread.
func (r *MessageRepo) MarkThreadRead(ctx context.Context, propertyID, counterpartID, viewerID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE, read_at=NOW()
        WHERE property_id=$1 AND sender_id=$2 AND receiver_id=$3 AND is_read=FALSE`,
		propertyID, counterpartID, viewerID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// ListForUser returns every message the user sent or received, newest first
// with id as tie-break. This is the input to conversation aggregation.
func (r *MessageRepo) ListForUser(ctx context.Context, userID int) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages
        WHERE sender_id=$1 OR receiver_id=$1
        ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, nil
}

// MarkRead flips one message to read. Marking an already-read message is a no-op.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE, read_at=NOW()
        WHERE id=$1 AND is_read=FALSE`, messageID)
	return err
}

// MarkAllRead marks every unread message addressed to the user as read.
func (r *MessageRepo) MarkAllRead(ctx context.Context, userID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE, read_at=NOW()
        WHERE receiver_id=$1 AND is_read=FALSE`, userID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// CountUnread counts unread messages addressed to the user.
func (r *MessageRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE receiver_id=$1 AND is_read=FALSE`, userID)
	return count, err
}
