package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moseb/chat"
)

// backends under test; both must satisfy the same load/save contract.
func eachBackend(t *testing.T, fn func(t *testing.T, open func(dir string) chat.Store)) {
	t.Helper()
	t.Run("file", func(t *testing.T) {
		fn(t, func(dir string) chat.Store {
			s, err := NewFileStore(dir)
			require.NoError(t, err)
			return s
		})
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, func(dir string) chat.Store {
			s, err := NewSQLiteStore(dir)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		})
	})
}

func sampleSet(t *testing.T) *chat.ChatSet {
	t.Helper()
	imagePayload, err := chat.ImagePayload{
		Content:  "a red fox in snow",
		ImageURL: "https://image.example/prompt/a%20red%20fox",
		Type:     chat.ImagePayloadType,
	}.Encode()
	require.NoError(t, err)

	first := chat.NewChat("moseb-ai")
	first.Title = "Explain quantum computing in s..."
	first.Messages = append(first.Messages,
		chat.NewMessage(chat.RoleUser, "Explain quantum computing", "moseb-ai"),
		chat.NewMessage(chat.RoleAssistant, "It uses qubits.", "moseb-ai"),
		chat.NewMessage(chat.RoleUser, imagePayload, "moseb-ai"),
	)

	second := chat.NewChat("moseb-code")
	return &chat.ChatSet{Chats: []*chat.Chat{first, second}, ActiveID: second.ID}
}

func TestRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, open func(dir string) chat.Store) {
		store := open(t.TempDir())
		want := sampleSet(t)

		require.NoError(t, store.Save(want))
		got, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, want.ActiveID, got.ActiveID)
		require.Len(t, got.Chats, len(want.Chats))
		for i, wc := range want.Chats {
			gc := got.Chats[i]
			assert.Equal(t, wc.ID, gc.ID)
			assert.Equal(t, wc.Title, gc.Title)
			assert.Equal(t, wc.Model, gc.Model)
			assert.True(t, gc.CreatedAt.Equal(wc.CreatedAt), "created_at must round-trip as an instant")
			assert.True(t, gc.UpdatedAt.Equal(wc.UpdatedAt), "updated_at must round-trip as an instant")

			require.Len(t, gc.Messages, len(wc.Messages))
			for j, wm := range wc.Messages {
				gm := gc.Messages[j]
				assert.Equal(t, wm.ID, gm.ID)
				assert.Equal(t, wm.Content, gm.Content)
				assert.Equal(t, wm.Role, gm.Role)
				assert.Equal(t, wm.Model, gm.Model)
				assert.True(t, gm.Timestamp.Equal(wm.Timestamp), "timestamp must round-trip as an instant")
			}
		}

		// Content classification is re-derived on load.
		assert.Equal(t, chat.ContentImage, got.Chats[0].Messages[2].Kind)
		require.NotNil(t, got.Chats[0].Messages[2].Image)
		assert.Equal(t, "a red fox in snow", got.Chats[0].Messages[2].Image.Content)
	})
}

func TestLoadAbsentReturnsEmpty(t *testing.T) {
	eachBackend(t, func(t *testing.T, open func(dir string) chat.Store) {
		store := open(t.TempDir())
		got, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	eachBackend(t, func(t *testing.T, open func(dir string) chat.Store) {
		store := open(t.TempDir())

		first := sampleSet(t)
		require.NoError(t, store.Save(first))

		solo := chat.NewChat("moseb-reason")
		second := &chat.ChatSet{Chats: []*chat.Chat{solo}, ActiveID: solo.ID}
		require.NoError(t, store.Save(second))

		got, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Chats, 1)
		assert.Equal(t, solo.ID, got.Chats[0].ID)
	})
}

func TestLoadCorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chats.json"), []byte("{not json"), 0600))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCorruptSlotTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`INSERT INTO slots (key, value) VALUES (?, ?)`, SlotKey, []byte("{not json"))
	require.NoError(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEnvelopeCarriesSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleSet(t)))

	data, err := os.ReadFile(filepath.Join(dir, "chats.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schema_version": 1`)
}

func TestSaveTimestampInstantAcrossZones(t *testing.T) {
	// An instant saved in one zone must compare equal after reload even if
	// the string form differs.
	loc := time.FixedZone("UTC+7", 7*3600)
	c := chat.NewChat("moseb-ai")
	c.CreatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, loc)
	c.UpdatedAt = c.CreatedAt
	set := &chat.ChatSet{Chats: []*chat.Chat{c}, ActiveID: c.ID}

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(set))

	got, err := store.Load()
	require.NoError(t, err)
	require.Len(t, got.Chats, 1)
	assert.True(t, got.Chats[0].CreatedAt.Equal(c.CreatedAt))
}
