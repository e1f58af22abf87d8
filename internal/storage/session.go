package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SessionRecord is the persisted shape of an authenticated session. The token
// is stored in header form ("Token <value>").
type SessionRecord struct {
	Token    string
	UserID   int
	Username string
	Email    string
}

// SessionStore persists the session across process restarts. At most one
// record exists at a time.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (creating if needed) the session database under dir.
func OpenSessionStore(dir, file string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, file))
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	store := &SessionStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SessionStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			email TEXT NOT NULL
		)
	`)
	return err
}

// Save writes the session record, replacing any previous one.
func (s *SessionStore) Save(rec *SessionRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO session (id, token, user_id, username, email)
		VALUES (1, ?, ?, ?, ?)
	`, rec.Token, rec.UserID, rec.Username, rec.Email)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or nil when none is stored.
func (s *SessionStore) Load() (*SessionRecord, error) {
	var rec SessionRecord
	err := s.db.QueryRow(`
		SELECT token, user_id, username, email FROM session WHERE id = 1
	`).Scan(&rec.Token, &rec.UserID, &rec.Username, &rec.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &rec, nil
}

// Clear removes the persisted session. Clearing an empty store is a no-op.
func (s *SessionStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}
