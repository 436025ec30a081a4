package dto

import (
	"time"

	"github.com/havencare/haven-go-api/internal/models"
)

// LocationSampleResponse is the serialised form of one position sample.
type LocationSampleResponse struct {
	UserID       string    `json:"user_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Accuracy     float64   `json:"accuracy,omitempty"`
	HeartRate    *int      `json:"heart_rate,omitempty"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	IsTracking   bool      `json:"is_tracking"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// FamilyLocationResponse pairs a viewable family member with their latest
// sample. Members without any sample are omitted upstream.
type FamilyLocationResponse struct {
	MemberID   string                 `json:"member_id"`
	MemberName string                 `json:"member_name,omitempty"`
	Latest     LocationSampleResponse `json:"latest"`
}

// NewLocationSampleResponse converts a model into a DTO.
func NewLocationSampleResponse(sample models.LocationSample) LocationSampleResponse {
	return LocationSampleResponse{
		UserID:       sample.UserID,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Accuracy:     sample.Accuracy,
		HeartRate:    sample.HeartRate,
		BatteryLevel: sample.BatteryLevel,
		IsTracking:   sample.IsTracking,
		RecordedAt:   sample.RecordedAt,
	}
}
