package models

import "time"

// ChatMessage is one entry in a job's append-only chat. Ordering is the
// server's arrival order, not the sender's clock.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read,omitempty"`
}
