package session

import "time"

// Message roles used by the agent protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single chat message. A message with InProgress set is
// still receiving token fragments; it is always the last message of a
// conversation and becomes immutable once InProgress drops to false.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	InProgress bool      `json:"in_progress,omitempty"`
}

// Session summarizes a conversation persisted in the remote archive.
// MessageCount comes from the archive and is never recomputed locally.
type Session struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
}
