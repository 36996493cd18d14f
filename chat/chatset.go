package chat

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the sentinel title of a conversation that has not yet been
// named by title synthesis.
const DefaultTitle = "New Chat"

// Chat is a titled, ordered sequence of messages plus metadata. The message
// sequence is append-only except for an explicit Clear, and the bound model
// id is fixed at creation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	Model     ModelID   `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChat creates an empty conversation bound to the given model.
func NewChat(model ModelID) *Chat {
	now := time.Now()
	return &Chat{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChatSet is the full conversation collection in display order (newest
// first) plus the id of the active conversation.
type ChatSet struct {
	Chats    []*Chat `json:"chats"`
	ActiveID string  `json:"active_id"`
}

// Get returns the chat with the given id, or nil.
func (s *ChatSet) Get(id string) *Chat {
	for _, c := range s.Chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Remove deletes the chat with the given id. Reports whether it was a member.
func (s *ChatSet) Remove(id string) bool {
	for i, c := range s.Chats {
		if c.ID == id {
			s.Chats = append(s.Chats[:i], s.Chats[i+1:]...)
			return true
		}
	}
	return false
}

// Prepend inserts a chat at the front of display order.
func (s *ChatSet) Prepend(c *Chat) {
	s.Chats = append([]*Chat{c}, s.Chats...)
}

// Normalize re-derives the per-message content classification. Must be
// called after deserialization, since the classification is not persisted.
func (s *ChatSet) Normalize() {
	for _, c := range s.Chats {
		for i := range c.Messages {
			m := &c.Messages[i]
			m.Kind, m.Image = ParseContent(m.Content)
		}
	}
}
