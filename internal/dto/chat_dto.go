package dto

import (
	"time"

	"github.com/havencare/haven-go-api/internal/models"
)

// ChatMessageResponse is the serialised representation of a stored message.
// Status reflects the pushed state, which may be ahead of the persisted row
// (delivery promotion happens in-flight only).
type ChatMessageResponse struct {
	ID         uint       `json:"id"`
	From       string     `json:"from"`
	UserName   string     `json:"user_name,omitempty"`
	Message    string     `json:"message"`
	Image      string     `json:"image,omitempty"`
	Status     string     `json:"status"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ChatUnreadResponse reports the total unread count across all threads.
type ChatUnreadResponse struct {
	UserID string `json:"user_id"`
	Unread int    `json:"unread"`
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		From:      message.SenderID,
		UserName:  message.SenderName,
		Message:   message.Body,
		Image:     message.Image,
		Status:    message.Status,
		ReadAt:    message.ReadAt,
		Timestamp: message.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts a slice of models into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}
