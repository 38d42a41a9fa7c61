package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/directory"
	"messaging-service/internal/models"
	"messaging-service/internal/notify"
	"messaging-service/internal/telemetry"
)

// ModerationHandler exposes the hooks the listing moderation workflow calls
// when it decides on a property. The listing status itself lives with the
// listing service; this core only fans the decision out as notifications.
type ModerationHandler struct {
	listings directory.ListingDirectory
	users    directory.UserDirectory
	emitter  *notify.Emitter
	audit    *telemetry.AuditEmitter
}

// NewModerationHandler builds a ModerationHandler.
func NewModerationHandler(listings directory.ListingDirectory, users directory.UserDirectory, emitter *notify.Emitter, audit *telemetry.AuditEmitter) *ModerationHandler {
	return &ModerationHandler{listings: listings, users: users, emitter: emitter, audit: audit}
}

// PropertyApproved notifies the listing owner of an approval decision.
func (h *ModerationHandler) PropertyApproved(c *gin.Context) {
	property, ok := h.lookupProperty(c)
	if !ok {
		return
	}
	moderatorID := c.GetInt("userID")

	notification, err := h.emitter.PropertyApproved(c.Request.Context(), property, property.OwnerID, moderatorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}

	h.emitAudit(c, fmt.Sprintf("property %d approved, owner %d notified", property.ID, property.OwnerID))
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": notification})
}

// PropertyRejected notifies the listing owner of a rejection; the reason is
// required and embedded in the notification message.
func (h *ModerationHandler) PropertyRejected(c *gin.Context) {
	property, ok := h.lookupProperty(c)
	if !ok {
		return
	}
	moderatorID := c.GetInt("userID")

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.emitter.PropertyRejected(c.Request.Context(), property, property.OwnerID, moderatorID, req.Reason)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}

	h.emitAudit(c, fmt.Sprintf("property %d rejected, owner %d notified", property.ID, property.OwnerID))
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": notification})
}

// PropertySubmitted fans an approval request out to the given moderators.
func (h *ModerationHandler) PropertySubmitted(c *gin.Context) {
	property, ok := h.lookupProperty(c)
	if !ok {
		return
	}

	var req struct {
		AdminIDs []int `json:"admin_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submitter, err := h.users.GetUserInfo(c.Request.Context(), property.OwnerID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "owner not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load owner info"})
		return
	}

	notifications := h.emitter.PropertySubmitted(c.Request.Context(), property, submitter, req.AdminIDs)
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

func (h *ModerationHandler) lookupProperty(c *gin.Context) (models.PropertyInfo, bool) {
	propertyID, err := strconv.Atoi(c.Param("property_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return models.PropertyInfo{}, false
	}

	property, err := h.listings.GetPropertyInfo(c.Request.Context(), propertyID)
	if err != nil {
		if errors.Is(err, directory.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return models.PropertyInfo{}, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load property"})
		return models.PropertyInfo{}, false
	}
	return property, true
}

func (h *ModerationHandler) emitAudit(c *gin.Context, text string) {
	var userID *string
	if id := userIDFromContext(c); id != nil {
		value := strconv.FormatInt(*id, 10)
		userID = &value
	}
	h.audit.Emit(c.Request.Context(), "INFO", text, requestIDFromContext(c), userID)
}
