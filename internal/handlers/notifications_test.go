package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/cache"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func setupNotificationRouter(repo repositories.NotificationRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(repo, cache.NewCountCache(nil, 0))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/notifications", handler.List)
	r.GET("/api/notifications/unread-count", handler.UnreadCount)
	r.PUT("/api/notifications/:notification_id/read", handler.MarkRead)
	r.PUT("/api/notifications/mark-all-read", handler.MarkAllRead)
	return r
}

func TestListNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("ListForUser", mock.Anything, 1, 20, false).Return([]models.Notification{
		{ID: 2, RecipientID: 1, Type: models.NotificationNewMessage, Title: "New Message"},
		{ID: 1, RecipientID: 1, Type: models.NotificationPropertyApproved, Title: "Property Approved", IsRead: true},
	}, nil).Once()
	repo.On("CountUnread", mock.Anything, 1).Return(1, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success       bool                  `json:"success"`
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unreadCount"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Notifications, 2)
	assert.Equal(t, 1, resp.UnreadCount)
	repo.AssertExpectations(t)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("ListForUser", mock.Anything, 1, 20, true).Return([]models.Notification{}, nil).Once()
	repo.On("CountUnread", mock.Anything, 1).Return(0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?unread=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListNotificationsCustomLimit(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("ListForUser", mock.Anything, 1, 5, false).Return([]models.Notification{}, nil).Once()
	repo.On("CountUnread", mock.Anything, 1).Return(0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestNotificationUnreadCount(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("CountUnread", mock.Anything, 1).Return(7, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 7, resp["count"])
	repo.AssertExpectations(t)
}

func TestNotificationMarkReadSuccess(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("Get", mock.Anything, 5).Return(models.Notification{ID: 5, RecipientID: 1}, nil).Once()
	repo.On("MarkRead", mock.Anything, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestNotificationMarkReadNotRecipient(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("Get", mock.Anything, 5).Return(models.Notification{ID: 5, RecipientID: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertExpectations(t)
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("Get", mock.Anything, 404).Return(models.Notification{}, repositories.ErrNotificationNotFound).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/404/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestNotificationMarkAllRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	router := setupNotificationRouter(repo)

	repo.On("MarkAllRead", mock.Anything, 1).Return(4, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/notifications/mark-all-read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 4, resp["count"])
	repo.AssertExpectations(t)
}
