package models

import "time"

// LocationSample is one position report from a user's device. Samples are
// append-only; the newest row per user is that user's current location.
type LocationSample struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:64;index:idx_location_user_time" json:"user_id"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	Accuracy     float64   `json:"accuracy,omitempty"`
	HeartRate    *int      `json:"heart_rate,omitempty"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	IsTracking   bool      `gorm:"not null;default:true" json:"is_tracking"`
	RecordedAt   time.Time `gorm:"index:idx_location_user_time" json:"recorded_at"`
}
