package conversations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func msg(id, sender, receiver, property int, at time.Time, read bool) models.Message {
	return models.Message{
		ID:          id,
		SenderID:    sender,
		ReceiverID:  receiver,
		PropertyID:  property,
		Content:     "m",
		MessageType: models.MessageTypeText,
		IsRead:      read,
		CreatedAt:   at,
	}
}

func TestAggregateGroupsBothDirectionsTogether(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	messages := []models.Message{
		msg(2, 2, 1, 7, t0.Add(time.Minute), false),
		msg(1, 1, 2, 7, t0, true),
	}

	convs := Aggregate(messages, 1)
	require.Len(t, convs, 1)
	assert.Equal(t, 7, convs[0].PropertyID)
	assert.Equal(t, 2, convs[0].CounterpartID)
	assert.Equal(t, 2, convs[0].LastMessage.ID)
	assert.Equal(t, 1, convs[0].UnreadCount)
}

func TestAggregateSeparatesProperties(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	messages := []models.Message{
		msg(3, 2, 1, 8, t0.Add(2*time.Minute), false),
		msg(2, 2, 1, 7, t0.Add(time.Minute), false),
		msg(1, 1, 2, 7, t0, true),
	}

	convs := Aggregate(messages, 1)
	require.Len(t, convs, 2)
	assert.Equal(t, 8, convs[0].PropertyID)
	assert.Equal(t, 7, convs[1].PropertyID)
}

func TestAggregateSortsByLastActivity(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Conversation with user 3 is older overall but has the most messages.
	messages := []models.Message{
		msg(4, 2, 1, 7, t0.Add(3*time.Minute), false),
		msg(3, 3, 1, 7, t0.Add(2*time.Minute), false),
		msg(2, 1, 3, 7, t0.Add(time.Minute), false),
		msg(1, 3, 1, 7, t0, false),
	}

	convs := Aggregate(messages, 1)
	require.Len(t, convs, 2)
	assert.Equal(t, 2, convs[0].CounterpartID)
	assert.Equal(t, 3, convs[1].CounterpartID)
	assert.Equal(t, 2, convs[1].UnreadCount)
}

func TestAggregateTieBreaksByMessageID(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	messages := []models.Message{
		msg(2, 3, 1, 8, t0, false),
		msg(1, 2, 1, 7, t0, false),
	}

	convs := Aggregate(messages, 1)
	require.Len(t, convs, 2)
	assert.Equal(t, 2, convs[0].LastMessage.ID)
	assert.Equal(t, 1, convs[1].LastMessage.ID)

	// Same input in any order yields the same result.
	reversed := Aggregate([]models.Message{messages[1], messages[0]}, 1)
	assert.Equal(t, convs, reversed)
}

func TestAggregateUnreadCountsOnlyViewerSide(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	messages := []models.Message{
		msg(3, 1, 2, 7, t0.Add(2*time.Minute), false), // sent by viewer, never counted
		msg(2, 2, 1, 7, t0.Add(time.Minute), false),
		msg(1, 2, 1, 7, t0, true),
	}

	convs := Aggregate(messages, 1)
	require.Len(t, convs, 1)
	assert.Equal(t, 1, convs[0].UnreadCount)

	// The counterpart sees their own unread state, not the viewer's.
	other := Aggregate(messages, 2)
	require.Len(t, other, 1)
	assert.Equal(t, 1, other[0].UnreadCount)
	assert.Equal(t, 1, other[0].CounterpartID)
}

func TestAggregateEmptyLog(t *testing.T) {
	convs := Aggregate(nil, 1)
	assert.Empty(t, convs)
}
