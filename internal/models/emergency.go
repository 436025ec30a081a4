package models

import "time"

// Alert types.
const (
	AlertTypeSOS           = "SOS"
	AlertTypeGuardianTimer = "GUARDIAN_TIMER"
	AlertTypeFallDetected  = "FALL_DETECTED"
	AlertTypeManual        = "MANUAL"
)

// Alert severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityUrgent   = "URGENT"
	SeverityWarning  = "WARNING"
)

// Alert lifecycle. CANCELLED and RESOLVED are terminal.
const (
	AlertStatusActive    = "ACTIVE"
	AlertStatusCancelled = "CANCELLED"
	AlertStatusResolved  = "RESOLVED"
)

// Responder notification states. Only NOTIFIED is ever written today; the
// remaining states are carried for the mobile clients that render them.
const (
	ResponderNotified   = "NOTIFIED"
	ResponderSeen       = "SEEN"
	ResponderResponding = "RESPONDING"
	ResponderDeclined   = "DECLINED"
)

// EmergencyAlert is a raised emergency owned by a single user. The responder
// list is fixed at trigger time from the owner's accepted family relations.
type EmergencyAlert struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      string           `gorm:"size:64;index" json:"user_id"`
	Type        string           `gorm:"size:32;not null" json:"type"`
	Severity    string           `gorm:"size:16;default:CRITICAL" json:"severity"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Address     string           `gorm:"size:255" json:"address,omitempty"`
	Status      string           `gorm:"size:16;default:ACTIVE;index" json:"status"`
	Notes       string           `gorm:"type:text" json:"notes,omitempty"`
	TriggeredAt time.Time        `json:"triggered_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	Responders  []AlertResponder `gorm:"foreignKey:AlertID" json:"responders"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AlertResponder records a single notified responder for an alert.
type AlertResponder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AlertID     uint      `gorm:"index;not null" json:"alert_id"`
	ResponderID string    `gorm:"size:64;index" json:"responder_id"`
	Status      string    `gorm:"size:16;default:NOTIFIED" json:"status"`
	NotifiedAt  time.Time `json:"notified_at"`
}
