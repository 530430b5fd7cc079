package models

import "time"

// Notification is a message addressed to one user or broadcast to all.
// A nil RecipientID means broadcast.
type Notification struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"senderId"`
	RecipientID *int64    `json:"recipientId"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}
