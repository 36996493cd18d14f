// Package storage persists the full conversation set to a single durable
// slot. Two backends implement chat.Store: a JSON file and a SQLite
// key-value table. Both store the same versioned JSON envelope under the
// fixed namespace key, and both treat absent or corrupt state as empty
// rather than failing.
package storage

import (
	"encoding/json"
	"fmt"

	"moseb/chat"
)

// SlotKey is the fixed namespace the conversation set is stored under.
const SlotKey = "mosebChats"

// SchemaVersion is written into every envelope so future format changes can
// be detected on load.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int          `json:"schema_version"`
	Chats         []*chat.Chat `json:"chats"`
	ActiveID      string       `json:"active_id"`
}

// encode serializes the conversation set into the versioned envelope.
// Timestamps marshal as RFC 3339 through time.Time, so they re-hydrate as
// instants rather than opaque strings.
func encode(set *chat.ChatSet) ([]byte, error) {
	env := envelope{
		SchemaVersion: SchemaVersion,
		Chats:         set.Chats,
		ActiveID:      set.ActiveID,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chats: %w", err)
	}
	return data, nil
}

// decode parses an envelope and re-derives the per-message content
// classification, which is not persisted.
func decode(data []byte) (*chat.ChatSet, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chats: %w", err)
	}
	set := &chat.ChatSet{
		Chats:    env.Chats,
		ActiveID: env.ActiveID,
	}
	set.Normalize()
	return set, nil
}
