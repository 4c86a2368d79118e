// Package store is the durable client-side state: the credential token,
// per-conversation fallback threads and small preference flags. Backed by
// SQLite in the user data directory; one database per profile.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store handles all local database operations.
type Store struct {
	db *sql.DB
}

// New creates a Store with a SQLite backend at dbPath.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS threads (
		item_id INTEGER NOT NULL,
		buyer_id INTEGER NOT NULL,
		seller_id INTEGER NOT NULL,
		viewer_id INTEGER NOT NULL,
		messages TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (item_id, buyer_id, seller_id, viewer_id)
	);

	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveToken persists the credential token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (id, token, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at
	`, token, time.Now())
	return err
}

// LoadToken returns the persisted token, or "" when none is stored.
func (s *Store) LoadToken() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// ClearToken removes the persisted token.
func (s *Store) ClearToken() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`)
	return err
}

// ThreadKey identifies a conversation fallback record.
type ThreadKey struct {
	ItemID   int64
	BuyerID  int64
	SellerID int64
	ViewerID int64
}

// Message is one stored conversation message.
type Message struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Mine   bool      `json:"mine"`
	SentAt time.Time `json:"sent_at"`
}

// SaveThread persists a conversation thread under its composite key.
func (s *Store) SaveThread(key ThreadKey, msgs []Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshal thread: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO threads (item_id, buyer_id, seller_id, viewer_id, messages, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, buyer_id, seller_id, viewer_id) DO UPDATE SET
			messages = excluded.messages,
			updated_at = excluded.updated_at
	`, key.ItemID, key.BuyerID, key.SellerID, key.ViewerID, string(data), time.Now())
	return err
}

// LoadThread returns the stored thread for key, or ErrNotFound.
func (s *Store) LoadThread(key ThreadKey) ([]Message, error) {
	var data string
	err := s.db.QueryRow(`
		SELECT messages FROM threads
		WHERE item_id = ? AND buyer_id = ? AND seller_id = ? AND viewer_id = ?
	`, key.ItemID, key.BuyerID, key.SellerID, key.ViewerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, fmt.Errorf("unmarshal thread: %w", err)
	}
	return msgs, nil
}

const prefInstallPromptDismissed = "install_prompt_dismissed"

// SetInstallPromptDismissed records that the user dismissed the install suggestion.
func (s *Store) SetInstallPromptDismissed(dismissed bool) error {
	value := "0"
	if dismissed {
		value = "1"
	}
	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, prefInstallPromptDismissed, value)
	return err
}

// InstallPromptDismissed reports whether the install suggestion was dismissed.
func (s *Store) InstallPromptDismissed() (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM prefs WHERE key = ?`, prefInstallPromptDismissed).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}
