package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/cache"
	"messaging-service/internal/conversations"
	"messaging-service/internal/directory"
	"messaging-service/internal/models"
	"messaging-service/internal/notify"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
	"messaging-service/internal/ws"
)

const defaultThreadPageSize = 50

// ChatHandler manages the messaging endpoints.
type ChatHandler struct {
	messageRepo repositories.MessageRepository
	listings    directory.ListingDirectory
	users       directory.UserDirectory
	emitter     *notify.Emitter
	realtime    ws.Emitter
	unread      *cache.CountCache
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(
	messageRepo repositories.MessageRepository,
	listings directory.ListingDirectory,
	users directory.UserDirectory,
	emitter *notify.Emitter,
	realtime ws.Emitter,
	unread *cache.CountCache,
) *ChatHandler {
	return &ChatHandler{
		messageRepo: messageRepo,
		listings:    listings,
		users:       users,
		emitter:     emitter,
		realtime:    realtime,
		unread:      unread,
	}
}

type attachmentInput struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Data        []byte `json:"data" binding:"required"`
}

type sendMessageRequest struct {
	ReceiverID  int               `json:"receiver_id" binding:"required"`
	PropertyID  int               `json:"property_id" binding:"required"`
	Content     string            `json:"content" binding:"required"`
	MessageType string            `json:"message_type"`
	Offer       *models.Offer     `json:"offer"`
	Attachments []attachmentInput `json:"attachments"`
}

// SendMessage validates and persists a message, then layers the secondary
// effects on top: notification record, realtime pushes, unread-cache
// invalidation. Secondary failures degrade to warnings; the persisted
// message is the operation's outcome.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID := c.GetInt("userID")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReceiverID == senderID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	// Counted in characters, matching the char_length CHECK on the table.
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > models.MaxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must be between 1 and 1000 characters"})
		return
	}

	messageType := models.MessageType(req.MessageType)
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if !models.ValidMessageType(messageType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message type"})
		return
	}
	if req.Offer != nil && messageType != models.MessageTypeOffer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer payload requires offer message type"})
		return
	}

	exists, err := h.users.UserExists(c.Request.Context(), req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to verify receiver"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "receiver not found"})
		return
	}

	property, err := h.listings.GetPropertyInfo(c.Request.Context(), req.PropertyID)
	if err != nil {
		if errors.Is(err, directory.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to verify property"})
		return
	}

	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, models.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Data:        att.Data,
		})
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), repositories.CreateMessageParams{
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		PropertyID:  req.PropertyID,
		Content:     content,
		MessageType: messageType,
		Offer:       req.Offer,
		Attachments: attachments,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}
	observability.IncMessageSent(string(messageType))

	// From here on the message is durable; everything below is best-effort.
	h.unread.Invalidate(c.Request.Context(), msg.ReceiverID, cache.KeyUnreadMessages)

	sender, err := h.users.GetUserInfo(c.Request.Context(), senderID)
	if err != nil {
		log.Printf("sender lookup for notification failed: %v", err)
		sender = models.UserInfo{ID: senderID, Name: "Someone"}
	}

	if _, err := h.emitter.NewMessage(c.Request.Context(), msg, property, sender); err != nil {
		log.Printf("message notification failed: %v", err)
	}

	if h.realtime != nil {
		h.realtime.EmitToUser(msg.ReceiverID, models.EventMessageReceived, models.MessageEvent{
			Message:  msg,
			Property: property,
		})
	}

	_ = observability.PublishEvent(c.Request.Context(), "message_events.sent", observability.EventEnvelope{
		EventType: "message_events",
		EventName: "message_sent",
		Payload: map[string]interface{}{
			"message_id":   msg.ID,
			"sender_id":    msg.SenderID,
			"receiver_id":  msg.ReceiverID,
			"property_id":  msg.PropertyID,
			"message_type": msg.MessageType,
		},
	}, observability.BuildHeaders(requestIDFromContext(c), ""))

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

// ListConversations derives the caller's conversation list from the message
// log and enriches it with counterpart and property display data.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	messages, err := h.messageRepo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	convs := conversations.Aggregate(messages, userID)

	counterpartIDs := make([]int, 0, len(convs))
	seen := map[int]struct{}{}
	for _, conv := range convs {
		if _, ok := seen[conv.CounterpartID]; !ok {
			seen[conv.CounterpartID] = struct{}{}
			counterpartIDs = append(counterpartIDs, conv.CounterpartID)
		}
	}

	users, err := h.users.BulkUserInfo(c.Request.Context(), counterpartIDs)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load user info"})
		return
	}

	properties := map[int]models.PropertyInfo{}
	for i := range convs {
		convs[i].Counterpart = users[convs[i].CounterpartID]

		info, ok := properties[convs[i].PropertyID]
		if !ok {
			info, err = h.listings.GetPropertyInfo(c.Request.Context(), convs[i].PropertyID)
			if err != nil && !errors.Is(err, directory.ErrPropertyNotFound) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load property info"})
				return
			}
			properties[convs[i].PropertyID] = info
		}
		convs[i].Property = info
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": convs})
}

type threadMessageResponse struct {
	models.Message
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

// GetThread returns one page of the conversation with a counterpart about a
// property, oldest first, and marks the viewer's side of it read: opening a
// thread acknowledges it.
func (h *ChatHandler) GetThread(c *gin.Context) {
	propertyID, counterpartID, ok := parseThreadIDs(c)
	if !ok {
		return
	}
	viewerID := c.GetInt("userID")

	page, limit := pagination(c)

	exists, err := h.listings.PropertyExists(c.Request.Context(), propertyID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to verify property"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}

	msgs, total, err := h.messageRepo.ListThread(c.Request.Context(), propertyID, viewerID, counterpartID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	// Bulk update scoped by the same participant/property filter as the query;
	// deliberately not time-scoped, matching the acknowledge-on-open contract.
	if _, err := h.messageRepo.MarkThreadRead(c.Request.Context(), propertyID, counterpartID, viewerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}
	h.unread.Invalidate(c.Request.Context(), viewerID, cache.KeyUnreadMessages)

	users, err := h.users.BulkUserInfo(c.Request.Context(), []int{viewerID, counterpartID})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load user info"})
		return
	}

	// Storage order is newest-first; the client reads chronologically.
	resp := make([]threadMessageResponse, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		sender := users[msgs[i].SenderID]
		resp = append(resp, threadMessageResponse{
			Message:      msgs[i],
			SenderName:   sender.Name,
			SenderAvatar: sender.AvatarURL,
		})
	}

	pages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": resp,
		"pagination": gin.H{
			"current": page,
			"pages":   pages,
			"total":   total,
			"hasNext": page < pages,
			"hasPrev": page > 1,
		},
	})
}

// MarkMessageRead marks a single message read; only the receiver may do so,
// and repeating it is a no-op.
func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	userID := c.GetInt("userID")

	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ReceiverID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver can mark a message read"})
		return
	}

	if err := h.messageRepo.MarkRead(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark message read"})
		return
	}
	h.unread.Invalidate(c.Request.Context(), userID, cache.KeyUnreadMessages)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllMessagesRead marks every unread message addressed to the caller.
func (h *ChatHandler) MarkAllMessagesRead(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.messageRepo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}
	h.unread.Invalidate(c.Request.Context(), userID, cache.KeyUnreadMessages)

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// UnreadCount returns the caller's unread message count for the UI badge.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.unread.Get(c.Request.Context(), cache.KeyUnreadMessages, userID, h.messageRepo.CountUnread)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

func parseThreadIDs(c *gin.Context) (int, int, bool) {
	propertyID, err := strconv.Atoi(c.Param("property_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return 0, 0, false
	}
	counterpartID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, 0, false
	}
	return propertyID, counterpartID, true
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultThreadPageSize)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultThreadPageSize
	}
	return page, limit
}
