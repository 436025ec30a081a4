package service

import (
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/realtime"
)

// PresenceService announces online/offline transitions to every other
// session. Stateless and fire-and-forget: a missed presence event is never
// retried and never reported.
type PresenceService struct {
	registry *realtime.Registry
	logger   zerolog.Logger
}

// NewPresenceService constructs a presence broadcaster.
func NewPresenceService(registry *realtime.Registry, logger zerolog.Logger) *PresenceService {
	return &PresenceService{
		registry: registry,
		logger:   logger.With().Str("component", "presence_service").Logger(),
	}
}

// Connected announces a session coming online to everyone except itself.
func (s *PresenceService) Connected(session *realtime.Session) {
	s.registry.BroadcastExcept(session, dto.EventPresenceOnline, dto.PresenceEvent{UserID: session.UserID})
	s.logger.Debug().Str("user_id", session.UserID).Msg("presence online")
}

// Disconnected announces a session going offline to everyone except itself.
func (s *PresenceService) Disconnected(session *realtime.Session) {
	s.registry.BroadcastExcept(session, dto.EventPresenceOffline, dto.PresenceEvent{UserID: session.UserID})
	s.logger.Debug().Str("user_id", session.UserID).Msg("presence offline")
}
