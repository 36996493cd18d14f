package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"moseb/chat"
)

// FileStore keeps the conversation set in a single JSON file in the data
// directory.
type FileStore struct {
	path string
}

var _ chat.Store = (*FileStore)(nil)

// NewFileStore creates the data directory if needed (0700 - user-only
// access) and returns a store backed by <dataDir>/chats.json.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dataDir, "chats.json"),
	}, nil
}

// Load reads the stored conversation set. An absent file yields (nil, nil);
// a corrupt file is logged and also yields (nil, nil) so callers start
// fresh rather than crash.
func (s *FileStore) Load() (*chat.ChatSet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chats file: %w", err)
	}

	set, err := decode(data)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("corrupt chats file, treating as empty")
		return nil, nil
	}
	return set, nil
}

// Save writes the full conversation set. Chat history is sensitive, hence
// 0600.
func (s *FileStore) Save(set *chat.ChatSet) error {
	data, err := encode(set)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write chats file: %w", err)
	}
	return nil
}
