package conversations

import (
	"sort"

	"messaging-service/internal/models"
)

// key identifies a conversation: one property and an unordered participant pair.
type key struct {
	propertyID int
	userA      int // smaller id
	userB      int // larger id
}

func keyFor(msg models.Message) key {
	a, b := msg.SenderID, msg.ReceiverID
	if a > b {
		a, b = b, a
	}
	return key{propertyID: msg.PropertyID, userA: a, userB: b}
}

// Aggregate reduces a flat message log to one conversation per
// {property, participant pair}, from the viewer's perspective. Each group's
// representative last message is the one with the greatest created_at, message
// id breaking ties, and the result is ordered by that representative, newest
// first. Message direction never splits a pair into two groups.
func Aggregate(messages []models.Message, viewerID int) []models.Conversation {
	groups := make(map[key]*models.Conversation)
	order := make([]key, 0)

	for _, msg := range messages {
		k := keyFor(msg)
		conv, ok := groups[k]
		if !ok {
			counterpart := msg.SenderID
			if counterpart == viewerID {
				counterpart = msg.ReceiverID
			}
			conv = &models.Conversation{
				PropertyID:    msg.PropertyID,
				CounterpartID: counterpart,
				LastMessage:   msg,
			}
			groups[k] = conv
			order = append(order, k)
		} else if newer(msg, conv.LastMessage) {
			conv.LastMessage = msg
		}
		if msg.ReceiverID == viewerID && !msg.IsRead {
			conv.UnreadCount++
		}
	}

	result := make([]models.Conversation, 0, len(groups))
	for _, k := range order {
		result = append(result, *groups[k])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return newer(result[i].LastMessage, result[j].LastMessage)
	})
	return result
}

// newer reports whether a was created after b, using the message id as a
// deterministic tie-break for equal timestamps.
func newer(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
