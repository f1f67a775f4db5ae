package models

import "time"

// Notification is a backend-pushed activity item. Read state is tracked
// client-side against a persisted id set, not on the server.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Type      string    `json:"type,omitempty"`
	JobID     string    `json:"job_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read,omitempty"`
}
