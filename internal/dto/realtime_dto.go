package dto

import (
	"encoding/json"
	"time"
)

// Realtime event names. The wire protocol is a closed set: every frame is an
// Envelope whose Event field is one of these constants.
const (
	// client -> server
	EventLocationUpdate   = "location:update"
	EventEmergencyTrigger = "emergency:trigger"
	EventEmergencyCancel  = "emergency:cancel"
	EventChatPrivate      = "chat:private"
	EventChatTyping       = "chat:typing"
	EventChatMarkRead     = "chat:markRead"
	EventHealthUpdate     = "health:update"
	EventDoctorJoin       = "doctor:join"

	// server -> clients
	EventPresenceOnline     = "presence:online"
	EventPresenceOffline    = "presence:offline"
	EventLocationUpdated    = "location:updated"
	EventEmergencyAlert     = "emergency:alert"
	EventEmergencyCancelled = "emergency:cancelled"
	EventChatMessage        = "chat:message"
	EventChatDelivered      = "chat:delivered"
	EventChatRead           = "chat:read"
	EventHealthStatus       = "health:status"
)

// Envelope frames every realtime message with its event discriminant.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EnvelopeOut is the outbound counterpart; payloads are marshalled lazily by
// the session writer.
type EnvelopeOut struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// PresenceEvent announces an online/offline transition.
type PresenceEvent struct {
	UserID string `json:"user_id"`
}

// LocationUpdateRequest is the client position report. Latitude and longitude
// are pointers so a missing field is distinguishable from zero.
type LocationUpdateRequest struct {
	Latitude     *float64 `json:"latitude" validate:"required"`
	Longitude    *float64 `json:"longitude" validate:"required"`
	Accuracy     float64  `json:"accuracy,omitempty"`
	HeartRate    *int     `json:"heart_rate,omitempty"`
	BatteryLevel *int     `json:"battery_level,omitempty"`
}

// LocationUpdatedEvent is fanned out to authorised viewers.
type LocationUpdatedEvent struct {
	UserID       string    `json:"user_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy,omitempty"`
	HeartRate    *int      `json:"heart_rate,omitempty"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EmergencyRefRequest references an already persisted alert.
type EmergencyRefRequest struct {
	EmergencyID uint `json:"emergency_id" validate:"required"`
}

// EmergencyAlertEvent is pushed to the responder pool and to each notified
// responder's personal room with an identical payload.
type EmergencyAlertEvent struct {
	EmergencyID uint      `json:"emergency_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// EmergencyCancelledEvent announces an owner cancelling their alert.
type EmergencyCancelledEvent struct {
	EmergencyID uint   `json:"emergency_id"`
	UserID      string `json:"user_id"`
}

// ChatPrivateRequest carries one private message from the sender's device.
type ChatPrivateRequest struct {
	To       string `json:"to" validate:"required,max=64"`
	Message  string `json:"message" validate:"required_without=Image,max=4000"`
	UserName string `json:"user_name,omitempty" validate:"omitempty,max=128"`
	Image    string `json:"image,omitempty"`
}

// ChatTypingEvent is relayed between the two participants unchanged apart
// from the to/from swap.
type ChatTypingEvent struct {
	To       string `json:"to,omitempty"`
	From     string `json:"from,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// ChatMarkReadRequest asks the server to mark all messages from From as read.
type ChatMarkReadRequest struct {
	From string `json:"from" validate:"required,max=64"`
}

// ChatDeliveredEvent acknowledges a send back to the sender.
type ChatDeliveredEvent struct {
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatReadEvent tells the original sender their messages were read.
type ChatReadEvent struct {
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthUpdateEvent is a vitals report relayed to the responder pool.
type HealthUpdateEvent struct {
	UserID    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Status    string `json:"status" validate:"required,max=64"`
	HeartRate *int   `json:"heart_rate,omitempty"`
}
