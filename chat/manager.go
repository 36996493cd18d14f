package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store persists the full conversation set. Implementations live in the
// storage package; the interface is defined here to avoid import cycles.
//
// Load returns (nil, nil) when nothing usable is stored. Save failures are
// non-fatal to callers: the manager logs them and carries on with in-memory
// state.
type Store interface {
	Load() (*ChatSet, error)
	Save(set *ChatSet) error
}

// Router turns outgoing content into an assistant reply for a model. It never
// fails: backend errors come back as human-readable fallback text.
type Router interface {
	Invoke(ctx context.Context, content string, model ModelID) string
}

var (
	// ErrNoActiveChat is returned by Send when no conversation is active.
	ErrNoActiveChat = errors.New("no active chat")
	// ErrEmptyMessage is returned by Send for whitespace-only content.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy is returned by Send while another send is in flight for the
	// same conversation. Rejected sends are not queued.
	ErrBusy = errors.New("send already in flight for this chat")
)

// Manager owns the conversation set and the active conversation, and
// implements the send protocol on top of a Store and a Router.
//
// Sends are serialized per conversation by an in-flight set: a second send on
// the same conversation is rejected while the first awaits its reply. Sends
// on different conversations may interleave.
type Manager struct {
	mu          sync.Mutex
	store       Store
	router      Router
	set         *ChatSet
	activeModel ModelID
	inflight    map[string]bool
}

// NewManager loads the conversation set from the store, synthesizing a single
// empty conversation when the store is empty or unreadable. The set is never
// empty once NewManager returns.
func NewManager(store Store, router Router, model ModelID) *Manager {
	m := &Manager{
		store:       store,
		router:      router,
		activeModel: model,
		inflight:    make(map[string]bool),
	}

	set, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load chats, starting fresh")
		set = nil
	}
	if set == nil {
		set = &ChatSet{}
	}
	set.Normalize()

	if len(set.Chats) == 0 {
		c := NewChat(model)
		set.Prepend(c)
		set.ActiveID = c.ID
	}
	if set.Get(set.ActiveID) == nil {
		set.ActiveID = set.Chats[0].ID
	}

	m.set = set
	m.persistLocked()
	return m
}

// NewChatSession creates an empty conversation bound to the active model,
// inserts it at the front of display order and makes it active.
func (m *Manager) NewChatSession() *Chat {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := NewChat(m.activeModel)
	m.set.Prepend(c)
	m.set.ActiveID = c.ID
	m.persistLocked()
	return c
}

// Select makes the conversation with the given id active. Unknown ids are a
// no-op. Selection never touches timestamps.
func (m *Manager) Select(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.set.Get(id) == nil {
		return
	}
	if m.set.ActiveID == id {
		return
	}
	m.set.ActiveID = id
	m.persistLocked()
}

// Delete removes the conversation with the given id. When the active
// conversation is deleted, the first remaining one becomes active; deleting
// the last conversation synthesizes a fresh one so the set is never empty.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.set.Remove(id) {
		return
	}
	if m.set.ActiveID == id {
		if len(m.set.Chats) > 0 {
			m.set.ActiveID = m.set.Chats[0].ID
		} else {
			c := NewChat(m.activeModel)
			m.set.Prepend(c)
			m.set.ActiveID = c.ID
		}
	}
	m.persistLocked()
}

// Clear empties the message sequence of the target conversation in place,
// leaving title and model binding untouched. Unknown ids are a no-op.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.set.Get(id)
	if c == nil {
		return
	}
	c.Messages = []Message{}
	c.UpdatedAt = time.Now()
	m.persistLocked()
}

// SetActiveModel changes the model used for subsequent sends and new
// conversations. Existing conversations keep their creation-time binding.
func (m *Manager) SetActiveModel(model ModelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeModel = model
}

// ActiveModel returns the model used for subsequent sends.
func (m *Manager) ActiveModel() ModelID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeModel
}

// ActiveChat returns the active conversation.
func (m *Manager) ActiveChat() *Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Get(m.set.ActiveID)
}

// Chats returns the conversation set in display order.
func (m *Manager) Chats() []*Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Chat, len(m.set.Chats))
	copy(out, m.set.Chats)
	return out
}

// Send runs one turn of the send protocol against the active conversation:
// append the user message, then either echo an image payload straight back
// or invoke the router and append its reply. Router failures surface as
// fallback reply text, never as an error from Send.
func (m *Manager) Send(ctx context.Context, content string) error {
	m.mu.Lock()

	active := m.set.Get(m.set.ActiveID)
	if active == nil {
		m.mu.Unlock()
		return ErrNoActiveChat
	}
	if strings.TrimSpace(content) == "" {
		m.mu.Unlock()
		return ErrEmptyMessage
	}
	if m.inflight[active.ID] {
		m.mu.Unlock()
		return ErrBusy
	}

	userMsg := NewMessage(RoleUser, content, m.activeModel)
	active.Messages = append(active.Messages, userMsg)
	active.UpdatedAt = time.Now()
	m.persistLocked()

	if userMsg.Kind == ContentImage {
		// Generated-image turns bypass the router: the assistant reply is
		// an immediate echo of the payload.
		echo := NewMessage(RoleAssistant, content, m.activeModel)
		active.Messages = append(active.Messages, echo)
		active.UpdatedAt = time.Now()
		m.persistLocked()
		m.mu.Unlock()
		return nil
	}

	// Capture the target id before suspending: the active conversation may
	// change while the router call is in flight, and the reply must be
	// written back by id, not through a live "current" reference.
	chatID := active.ID
	model := m.activeModel
	m.inflight[chatID] = true
	m.mu.Unlock()

	reply := m.router.Invoke(ctx, content, model)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, chatID)

	target := m.set.Get(chatID)
	if target == nil {
		log.Debug().Str("chat_id", chatID).Msg("chat deleted mid-send, dropping reply")
		return nil
	}

	if n := len(target.Messages); (n == 3 || n == 5) && target.Title == DefaultTitle {
		target.Title = SynthesizeTitle(target.Messages)
	}

	target.Messages = append(target.Messages, NewMessage(RoleAssistant, reply, model))
	target.UpdatedAt = time.Now()
	m.persistLocked()
	return nil
}

// persistLocked re-serializes the full conversation set. Callers hold mu.
func (m *Manager) persistLocked() {
	if err := m.store.Save(m.set); err != nil {
		log.Warn().Err(err).Msg("failed to save chats")
	}
}
