// Package sqlite provides SQLite-based storage implementation.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Storage implements the storage.Storage interface using SQLite
type Storage struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New creates a new SQLite storage instance
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &Storage{db: db}

	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return storage, nil
}

// createSchema creates the database schema
func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		role          TEXT NOT NULL DEFAULT 'user',
		password_hash TEXT NOT NULL,
		session_token TEXT,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_login    DATETIME
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id    INTEGER NOT NULL,
		recipient_id INTEGER,
		content      TEXT NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (sender_id) REFERENCES users(user_id) ON DELETE CASCADE,
		FOREIGN KEY (recipient_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS request_logs (
		id            TEXT PRIMARY KEY,
		request_id    TEXT NOT NULL,
		provider      TEXT NOT NULL,
		subpath       TEXT NOT NULL,
		method        TEXT NOT NULL,
		model         TEXT,
		prompt_tokens INTEGER DEFAULT 0,
		is_streaming  INTEGER DEFAULT 0,
		status_code   INTEGER,
		error_message TEXT,
		duration_ms   INTEGER,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id);
	CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_created ON request_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_provider ON request_logs(provider);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// checkOpen returns ErrStorageClosed if Close has been called.
func (s *Storage) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}
	return nil
}
