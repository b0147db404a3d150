package models

import "time"

// Session is one conversation between a caller and the assistant. Messages
// are stored separately as an append-only log keyed by the session ID.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
