package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/directory"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/ws"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, params repositories.CreateMessageParams) (models.Message, error) {
	args := m.Called(ctx, params)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListThread(ctx context.Context, propertyID, viewerID, counterpartID, page, limit int) ([]models.Message, int, error) {
	args := m.Called(ctx, propertyID, viewerID, counterpartID, page, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Int(1), args.Error(2)
}

func (m *MessageRepositoryMock) MarkThreadRead(ctx context.Context, propertyID, counterpartID, viewerID int) (int, error) {
	args := m.Called(ctx, propertyID, counterpartID, viewerID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Message, error) {
	args := m.Called(ctx, userID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkAllRead(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var stored models.Notification
	if val := args.Get(0); val != nil {
		stored = val.(models.Notification)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) Get(ctx context.Context, notificationID int) (models.Notification, error) {
	args := m.Called(ctx, notificationID)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID, limit int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, unreadOnly)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepositoryMock) CountUnread(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type ListingDirectoryMock struct {
	mock.Mock
}

func (m *ListingDirectoryMock) PropertyExists(ctx context.Context, propertyID int) (bool, error) {
	args := m.Called(ctx, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *ListingDirectoryMock) GetPropertyInfo(ctx context.Context, propertyID int) (models.PropertyInfo, error) {
	args := m.Called(ctx, propertyID)
	var info models.PropertyInfo
	if val := args.Get(0); val != nil {
		info = val.(models.PropertyInfo)
	}
	return info, args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) UserExists(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectoryMock) GetUserInfo(ctx context.Context, userID int) (models.UserInfo, error) {
	args := m.Called(ctx, userID)
	var info models.UserInfo
	if val := args.Get(0); val != nil {
		info = val.(models.UserInfo)
	}
	return info, args.Error(1)
}

func (m *UserDirectoryMock) BulkUserInfo(ctx context.Context, userIDs []int) (map[int]models.UserInfo, error) {
	args := m.Called(ctx, userIDs)
	var infos map[int]models.UserInfo
	if val := args.Get(0); val != nil {
		infos = val.(map[int]models.UserInfo)
	}
	return infos, args.Error(1)
}

// EmitterMock records realtime emissions.
type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) EmitToUser(userID int, event string, payload any) {
	m.Called(userID, event, payload)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ directory.ListingDirectory = (*ListingDirectoryMock)(nil)
var _ directory.UserDirectory = (*UserDirectoryMock)(nil)
var _ ws.Emitter = (*EmitterMock)(nil)
