package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ModelID is a logical model identifier selecting a backend route.
type ModelID string

// Message is a single chat turn. Messages are immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Model     ModelID   `json:"model"`
	Timestamp time.Time `json:"timestamp"`

	// Derived at construction (or re-derived after deserialization),
	// never persisted.
	Kind  ContentKind   `json:"-"`
	Image *ImagePayload `json:"-"`
}

// NewMessage builds a message, classifying its content exactly once.
func NewMessage(role Role, content string, model ModelID) Message {
	kind, img := ParseContent(content)
	return Message{
		ID:        uuid.New().String(),
		Content:   content,
		Role:      role,
		Model:     model,
		Timestamp: time.Now(),
		Kind:      kind,
		Image:     img,
	}
}
