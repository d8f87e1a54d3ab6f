package realtime

import "collab-app/internal/models"

// DefaultChatHistoryLimit is how many chat messages a room remembers.
const DefaultChatHistoryLimit = 50

// chatHistory is a bounded append log; the oldest message is evicted
// once the limit is exceeded.
type chatHistory struct {
	limit    int
	messages []models.ChatMessage
}

func newChatHistory(limit int) *chatHistory {
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}
	return &chatHistory{
		limit:    limit,
		messages: make([]models.ChatMessage, 0, limit),
	}
}

func (c *chatHistory) append(msg models.ChatMessage) {
	if len(c.messages) == c.limit {
		copy(c.messages, c.messages[1:])
		c.messages = c.messages[:c.limit-1]
	}
	c.messages = append(c.messages, msg)
}

func (c *chatHistory) len() int {
	return len(c.messages)
}

func (c *chatHistory) snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}
