package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mandalnilabja/chatgate/internal/storage/models"
)

// userColumns is the SELECT list shared by all user queries.
const userColumns = `user_id, username, role, password_hash,
	COALESCE(session_token, ''), created_at, last_login`

// scanUser reads one user row.
func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash,
		&u.SessionToken, &u.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// GetUserByID returns the user with the given ID, or ErrNotFound.
func (s *Storage) GetUserByID(id int64) (*models.User, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns the user with the given username, or ErrNotFound.
func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// CreateUser inserts a new user and populates its ID.
func (s *Storage) CreateUser(user *models.User) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if user.Username == "" || user.PasswordHash == "" {
		return ErrInvalidInput
	}

	res, err := s.db.Exec(
		`INSERT INTO users (username, role, password_hash) VALUES (?, ?, ?)`,
		user.Username, user.Role, user.PasswordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateKey
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id

	// Read back server-side defaults
	created, err := s.GetUserByID(id)
	if err == nil {
		user.Role = created.Role
		user.CreatedAt = created.CreatedAt
	}
	return nil
}

// UpdateSession stores a fresh session token and login timestamp for a user.
func (s *Storage) UpdateSession(userID int64, token string, loginAt time.Time) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.Exec(
		`UPDATE users SET session_token = ?, last_login = ? WHERE user_id = ?`,
		token, loginAt, userID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of account rows.
func (s *Storage) CountUsers() (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
