package sqlite

import (
	"database/sql"

	"github.com/mandalnilabja/chatgate/internal/storage/models"
)

// NotificationsQuery is the statement used to fetch notifications for a
// user. Exposed so the debug endpoint can echo it alongside results.
const NotificationsQuery = `SELECT id, sender_id, recipient_id, content, created_at
FROM notifications WHERE recipient_id = ? OR recipient_id IS NULL
ORDER BY created_at DESC`

// ListNotifications returns notifications addressed to the user plus
// broadcasts (NULL recipient), newest first.
func (s *Storage) ListNotifications(userID int64) ([]*models.Notification, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(NotificationsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var recipient sql.NullInt64

		if err := rows.Scan(&n.ID, &n.SenderID, &recipient, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		if recipient.Valid {
			n.RecipientID = &recipient.Int64
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// CreateNotification inserts a notification. A nil recipient broadcasts.
func (s *Storage) CreateNotification(n *models.Notification) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if n.Content == "" {
		return ErrInvalidInput
	}

	var recipient any
	if n.RecipientID != nil {
		recipient = *n.RecipientID
	}

	res, err := s.db.Exec(
		`INSERT INTO notifications (sender_id, recipient_id, content) VALUES (?, ?, ?)`,
		n.SenderID, recipient, n.Content,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}
