package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/cache"
	"messaging-service/internal/repositories"
)

const defaultNotificationLimit = 20

// NotificationHandler manages the notification endpoints.
type NotificationHandler struct {
	repo   repositories.NotificationRepository
	unread *cache.CountCache
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(repo repositories.NotificationRepository, unread *cache.CountCache) *NotificationHandler {
	return &NotificationHandler{repo: repo, unread: unread}
}

// List returns the caller's notifications newest first, together with the
// unread count the dropdown badge shows.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultNotificationLimit)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultNotificationLimit
	}
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.repo.ListForUser(c.Request.Context(), userID, limit, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	count, err := h.unread.Get(c.Request.Context(), cache.KeyUnreadNotifications, userID, h.repo.CountUnread)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"unreadCount":   count,
	})
}

// UnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.unread.Get(c.Request.Context(), cache.KeyUnreadNotifications, userID, h.repo.CountUnread)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// MarkRead marks one notification read; recipient only, idempotent.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	userID := c.GetInt("userID")

	notification, err := h.repo.Get(c.Request.Context(), notificationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "notification not found"})
		return
	}
	if notification.RecipientID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the recipient can mark a notification read"})
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), notificationID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}
	h.unread.Invalidate(c.Request.Context(), userID, cache.KeyUnreadNotifications)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead marks every unread notification addressed to the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications read"})
		return
	}
	h.unread.Invalidate(c.Request.Context(), userID, cache.KeyUnreadNotifications)

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}
