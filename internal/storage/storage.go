// Package storage provides the storage interface and implementations.
package storage

import (
	"time"

	"github.com/mandalnilabja/chatgate/internal/storage/models"
	"github.com/mandalnilabja/chatgate/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	User         = models.User
	UserPreview  = models.UserPreview
	Notification = models.Notification
	RequestLog   = models.RequestLog
	LogFilter    = models.LogFilter
)

// Re-export errors from sqlite package
var (
	ErrNotFound      = sqlite.ErrNotFound
	ErrDuplicateKey  = sqlite.ErrDuplicateKey
	ErrInvalidInput  = sqlite.ErrInvalidInput
	ErrStorageClosed = sqlite.ErrStorageClosed
)

// NotificationsQuery is the statement behind ListNotifications, echoed
// by the debug endpoint.
const NotificationsQuery = sqlite.NotificationsQuery

// Storage defines the interface for persistent data storage
type Storage interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByID(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	UpdateSession(userID int64, token string, loginAt time.Time) error
	CountUsers() (int64, error)

	// Notification operations
	ListNotifications(userID int64) ([]*models.Notification, error)
	CreateNotification(n *models.Notification) error

	// Request logging operations
	LogRequest(log *models.RequestLog) error
	GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance
// This is the main factory function for creating storage
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}
