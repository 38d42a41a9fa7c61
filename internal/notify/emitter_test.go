package notify

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/cache"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func newTestEmitter() (*Emitter, *mocks.NotificationRepositoryMock, *mocks.EmitterMock) {
	repo := new(mocks.NotificationRepositoryMock)
	realtime := new(mocks.EmitterMock)
	return NewEmitter(repo, realtime, cache.NewCountCache(nil, 0)), repo, realtime
}

func TestNotifyRejectsInvalidType(t *testing.T) {
	emitter, repo, _ := newTestEmitter()

	_, err := emitter.Notify(context.Background(), models.Notification{
		RecipientID: 1,
		Type:        "bogus",
		Title:       "t",
	})

	require.ErrorIs(t, err, ErrInvalidType)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotifyRejectsOversizedTitle(t *testing.T) {
	emitter, repo, _ := newTestEmitter()

	_, err := emitter.Notify(context.Background(), models.Notification{
		RecipientID: 1,
		Type:        models.NotificationNewMessage,
		Title:       strings.Repeat("t", models.MaxNotificationTitleLength+1),
	})

	require.ErrorIs(t, err, ErrTitleTooLong)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotifyPushesToRecipient(t *testing.T) {
	emitter, repo, realtime := newTestEmitter()

	actionURL := "/chat/9/2"
	repo.On("Create", mock.Anything, mock.Anything).Return(models.Notification{
		ID:          3,
		RecipientID: 4,
		Type:        models.NotificationNewMessage,
		Title:       "New Message",
		Message:     "Bob sent you a message",
		ActionURL:   &actionURL,
	}, nil).Once()
	realtime.On("EmitToUser", 4, models.EventNotificationReceived, mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.Type == models.NotificationNewMessage && e.ActionURL == actionURL
	})).Return().Once()

	stored, err := emitter.Notify(context.Background(), models.Notification{
		RecipientID: 4,
		Type:        models.NotificationNewMessage,
		Title:       "New Message",
		Message:     "Bob sent you a message",
		ActionURL:   &actionURL,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, stored.ID)
	repo.AssertExpectations(t)
	realtime.AssertExpectations(t)
}

func TestNewMessageOfferBecomesOfferReceived(t *testing.T) {
	emitter, repo, realtime := newTestEmitter()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationOfferReceived && n.RecipientID == 2
	})).Return(models.Notification{ID: 1, RecipientID: 2, Type: models.NotificationOfferReceived}, nil).Once()
	realtime.On("EmitToUser", 2, models.EventNotificationReceived, mock.Anything).Return().Once()

	msg := models.Message{ID: 7, SenderID: 1, ReceiverID: 2, PropertyID: 9, MessageType: models.MessageTypeOffer}
	_, err := emitter.NewMessage(context.Background(), msg, models.PropertyInfo{ID: 9, Title: "Flat"}, models.UserInfo{ID: 1, Name: "Alice"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	realtime.AssertExpectations(t)
}

func TestNewMessageActionURLPointsAtThread(t *testing.T) {
	emitter, repo, realtime := newTestEmitter()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.ActionURL != nil && *n.ActionURL == "/chat/9/1"
	})).Return(models.Notification{ID: 1, RecipientID: 2, Type: models.NotificationNewMessage}, nil).Once()
	realtime.On("EmitToUser", 2, models.EventNotificationReceived, mock.Anything).Return().Once()

	msg := models.Message{ID: 7, SenderID: 1, ReceiverID: 2, PropertyID: 9, MessageType: models.MessageTypeText}
	_, err := emitter.NewMessage(context.Background(), msg, models.PropertyInfo{ID: 9, Title: "Flat"}, models.UserInfo{ID: 1, Name: "Alice"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	realtime.AssertExpectations(t)
}

func TestNewMessageTruncatesOnRuneBoundary(t *testing.T) {
	emitter, repo, realtime := newTestEmitter()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return utf8.ValidString(n.Message) &&
			utf8.RuneCountInString(n.Message) <= models.MaxNotificationMessageLength
	})).Return(models.Notification{ID: 1, RecipientID: 2, Type: models.NotificationNewMessage}, nil).Once()
	realtime.On("EmitToUser", 2, models.EventNotificationReceived, mock.Anything).Return().Once()

	// A multibyte title long enough to force truncation of the built message.
	title := strings.Repeat("ع", models.MaxNotificationMessageLength)
	msg := models.Message{ID: 7, SenderID: 1, ReceiverID: 2, PropertyID: 9, MessageType: models.MessageTypeText}
	_, err := emitter.NewMessage(context.Background(), msg, models.PropertyInfo{ID: 9, Title: title}, models.UserInfo{ID: 1, Name: "Alice"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	realtime.AssertExpectations(t)
}

func TestPropertySubmittedContinuesOnPartialFailure(t *testing.T) {
	emitter, repo, realtime := newTestEmitter()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == 5
	})).Return(models.Notification{}, assert.AnError).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == 6
	})).Return(models.Notification{ID: 2, RecipientID: 6, Type: models.NotificationPropertyApprovalNeeded}, nil).Once()
	realtime.On("EmitToUser", 6, models.EventNotificationReceived, mock.Anything).Return().Once()

	created := emitter.PropertySubmitted(context.Background(),
		models.PropertyInfo{ID: 9, Title: "Flat"},
		models.UserInfo{ID: 4, Name: "Dana"},
		[]int{5, 6})

	require.Len(t, created, 1)
	assert.Equal(t, 6, created[0].RecipientID)
	repo.AssertExpectations(t)
	realtime.AssertExpectations(t)
}
