package models

import "time"

// User represents an account row in the user store. The gateway only
// reads users for credential validation and admin lookup; login is the
// single write path (session token and last_login refresh).
type User struct {
	ID           int64      `json:"userId"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	PasswordHash string     `json:"-"` // Argon2id hash, never exposed
	SessionToken string     `json:"-"` // opaque token, never exposed
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// UserPreview is the client-safe representation of a user row.
type UserPreview struct {
	ID        int64      `json:"userId"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// ToPreview converts a User to its safe preview.
func (u *User) ToPreview() *UserPreview {
	return &UserPreview{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
