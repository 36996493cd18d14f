package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"moseb/chat"
)

// SQLiteStore keeps the conversation set in a single row of a key-value
// table inside <dataDir>/moseb.db. Same envelope as FileStore, different
// durability story.
type SQLiteStore struct {
	db *sql.DB
}

var _ chat.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database and its slots
// table.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "moseb.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the slot. A missing row yields (nil, nil); an undecodable
// value is logged and yields (nil, nil).
func (s *SQLiteStore) Load() (*chat.ChatSet, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, SlotKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chats slot: %w", err)
	}

	set, err := decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("corrupt chats slot, treating as empty")
		return nil, nil
	}
	return set, nil
}

// Save upserts the full conversation set into the slot.
func (s *SQLiteStore) Save(set *chat.ChatSet) error {
	data, err := encode(set)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, SlotKey, data); err != nil {
		return fmt.Errorf("failed to write chats slot: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
