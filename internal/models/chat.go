package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message delivery states.
const (
	MessageSent      = "sent"
	MessageDelivered = "delivered"
	MessageRead      = "read"
)

// ChatThread is the persistent conversation between exactly two users.
// Participants are stored in lexical order so the unordered pair maps to a
// single row. Unread keeps a per-participant counter keyed by user id.
type ChatThread struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ParticipantA string            `gorm:"size:64;uniqueIndex:idx_thread_pair" json:"participant_a"`
	ParticipantB string            `gorm:"size:64;uniqueIndex:idx_thread_pair" json:"participant_b"`
	LastActive   time.Time         `json:"last_active"`
	Unread       datatypes.JSONMap `gorm:"type:json" json:"unread"`
	Messages     []ChatMessage     `gorm:"foreignKey:ThreadID" json:"messages"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ChatMessage is a single message inside a thread. Immutable once written
// apart from the read promotion (Status + ReadAt).
type ChatMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ThreadID   uint       `gorm:"index;not null" json:"thread_id"`
	SenderID   string     `gorm:"size:64;index" json:"sender_id"`
	SenderName string     `gorm:"size:128" json:"sender_name"`
	Body       string     `gorm:"type:text" json:"body"`
	Image      string     `gorm:"type:text" json:"image,omitempty"`
	Status     string     `gorm:"size:16;default:sent" json:"status"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ThreadKey returns the canonical ordered pair for two participants.
func ThreadKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
