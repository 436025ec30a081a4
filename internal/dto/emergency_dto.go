package dto

import (
	"time"

	"github.com/havencare/haven-go-api/internal/models"
)

// EmergencyTriggerRequest creates a new alert for the authenticated owner.
type EmergencyTriggerRequest struct {
	Type      string   `json:"type" validate:"required,oneof=SOS GUARDIAN_TIMER FALL_DETECTED MANUAL"`
	Severity  string   `json:"severity" validate:"omitempty,oneof=CRITICAL URGENT WARNING"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Address   string   `json:"address,omitempty" validate:"omitempty,max=255"`
	Notes     string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AlertResponderResponse is one notified responder on an alert.
type AlertResponderResponse struct {
	ResponderID string    `json:"responder_id"`
	Status      string    `json:"status"`
	NotifiedAt  time.Time `json:"notified_at"`
}

// EmergencyAlertResponse is the serialised alert returned by trigger, cancel
// and listing operations.
type EmergencyAlertResponse struct {
	ID          uint                     `json:"id"`
	UserID      string                   `json:"user_id"`
	Type        string                   `json:"type"`
	Severity    string                   `json:"severity"`
	Latitude    float64                  `json:"latitude"`
	Longitude   float64                  `json:"longitude"`
	Address     string                   `json:"address,omitempty"`
	Status      string                   `json:"status"`
	Notes       string                   `json:"notes,omitempty"`
	TriggeredAt time.Time                `json:"triggered_at"`
	ResolvedAt  *time.Time               `json:"resolved_at,omitempty"`
	Responders  []AlertResponderResponse `json:"responders"`
}

// NewEmergencyAlertResponse converts a model into a DTO.
func NewEmergencyAlertResponse(alert models.EmergencyAlert) EmergencyAlertResponse {
	responders := make([]AlertResponderResponse, 0, len(alert.Responders))
	for _, r := range alert.Responders {
		responders = append(responders, AlertResponderResponse{
			ResponderID: r.ResponderID,
			Status:      r.Status,
			NotifiedAt:  r.NotifiedAt,
		})
	}

	return EmergencyAlertResponse{
		ID:          alert.ID,
		UserID:      alert.UserID,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Latitude:    alert.Latitude,
		Longitude:   alert.Longitude,
		Address:     alert.Address,
		Status:      alert.Status,
		Notes:       alert.Notes,
		TriggeredAt: alert.TriggeredAt,
		ResolvedAt:  alert.ResolvedAt,
		Responders:  responders,
	}
}

// NewEmergencyAlertResponseSlice converts a slice of models into DTOs.
func NewEmergencyAlertResponseSlice(alerts []models.EmergencyAlert) []EmergencyAlertResponse {
	out := make([]EmergencyAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, NewEmergencyAlertResponse(alert))
	}
	return out
}
