package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/observability"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/repository"
)

// ErrAlertNotFound mirrors the repository sentinel so handlers can map it
// without importing the repository package.
var ErrAlertNotFound = repository.ErrAlertNotFound

// PoolRoom is the shared room for responders-at-large (medical staff etc.).
const PoolRoom = "responders"

// EmergencyService owns the alert state machine: ACTIVE -> CANCELLED and
// ACTIVE -> RESOLVED, both terminal.
type EmergencyService interface {
	Trigger(ctx context.Context, ownerID string, req dto.EmergencyTriggerRequest) (dto.EmergencyAlertResponse, error)
	BroadcastTrigger(ctx context.Context, emergencyID uint) error
	Cancel(ctx context.Context, ownerID string, emergencyID uint) (dto.EmergencyAlertResponse, error)
	ListActive(ctx context.Context, ownerID string) ([]dto.EmergencyAlertResponse, error)
	PoolFeed(ctx context.Context) ([]dto.EmergencyAlertResponse, error)
}

type emergencyService struct {
	repo      repository.AlertRepository
	directory DirectoryService
	registry  *realtime.Registry
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEmergencyService constructs an emergency coordinator.
func NewEmergencyService(repo repository.AlertRepository, directory DirectoryService, registry *realtime.Registry, validate *validator.Validate, logger zerolog.Logger) EmergencyService {
	return &emergencyService{
		repo:      repo,
		directory: directory,
		registry:  registry,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "emergency_service").Logger(),
		tracer:    otel.Tracer("github.com/havencare/haven-go-api/internal/service/emergency"),
	}
}

// Trigger creates the alert and then attaches responders derived from the
// owner's accepted canReceiveEmergency relations. The two persisted writes
// are deliberately not atomic: a crash in between leaves an ACTIVE alert
// with no responders, which is a tolerated degraded state.
func (s *emergencyService) Trigger(ctx context.Context, ownerID string, req dto.EmergencyTriggerRequest) (dto.EmergencyAlertResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EmergencyAlertResponse{}, err
	}

	severity := req.Severity
	if severity == "" {
		severity = models.SeverityCritical
	}

	spanCtx, span := s.tracer.Start(ctx, "emergency.trigger", trace.WithAttributes(
		attribute.String("alert.owner_id", ownerID),
		attribute.String("alert.type", req.Type),
		attribute.String("alert.severity", severity),
	))
	defer span.End()

	alert := models.EmergencyAlert{
		UserID:      ownerID,
		Type:        req.Type,
		Severity:    severity,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		Address:     req.Address,
		Status:      models.AlertStatusActive,
		Notes:       s.sanitizer.Sanitize(req.Notes),
		TriggeredAt: time.Now().UTC(),
	}

	if err := s.repo.Create(spanCtx, &alert); err != nil {
		span.RecordError(err)
		observability.PersistenceFailures().WithLabelValues("alert_create").Inc()
		return dto.EmergencyAlertResponse{}, err
	}

	relations, err := s.directory.Responders(spanCtx, ownerID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("alert_id", alert.ID).Msg("failed to resolve responders, alert left without any")
		return dto.NewEmergencyAlertResponse(alert), nil
	}

	now := time.Now().UTC()
	responders := make([]models.AlertResponder, 0, len(relations))
	for _, relation := range relations {
		responders = append(responders, models.AlertResponder{
			ResponderID: relation.MemberID,
			Status:      models.ResponderNotified,
			NotifiedAt:  now,
		})
	}

	if err := s.repo.AttachResponders(spanCtx, alert.ID, responders); err != nil {
		span.RecordError(err)
		observability.PersistenceFailures().WithLabelValues("alert_responders").Inc()
		s.logger.Error().Err(err).Uint("alert_id", alert.ID).Msg("failed to attach responders, alert left without any")
		return dto.NewEmergencyAlertResponse(alert), nil
	}

	alert.Responders = responders
	observability.AlertsTriggered().WithLabelValues(alert.Type, alert.Severity).Inc()
	s.logger.Info().Uint("alert_id", alert.ID).Str("owner_id", ownerID).Int("responders", len(responders)).Msg("emergency alert triggered")

	return dto.NewEmergencyAlertResponse(alert), nil
}

// BroadcastTrigger pushes emergency:alert to the shared responder pool and to
// each notified responder's personal room with the same payload.
func (s *emergencyService) BroadcastTrigger(ctx context.Context, emergencyID uint) error {
	alert, err := s.repo.FindByID(ctx, emergencyID)
	if err != nil {
		return err
	}

	event := dto.EmergencyAlertEvent{
		EmergencyID: alert.ID,
		UserID:      alert.UserID,
		Type:        alert.Type,
		Severity:    alert.Severity,
		Latitude:    alert.Latitude,
		Longitude:   alert.Longitude,
		Address:     alert.Address,
		TriggeredAt: alert.TriggeredAt,
	}
	if profile, err := s.directory.Profile(ctx, alert.UserID); err == nil {
		event.UserName = profile.Name
	}

	s.registry.SendToRoom(PoolRoom, dto.EventEmergencyAlert, event)
	for _, responder := range alert.Responders {
		s.registry.SendToRoom(realtime.PersonalRoom(responder.ResponderID), dto.EventEmergencyAlert, event)
	}
	return nil
}

// Cancel transitions the alert to CANCELLED, but only for its owner. Any
// other caller gets not-found; existence is never revealed across tenants.
func (s *emergencyService) Cancel(ctx context.Context, ownerID string, emergencyID uint) (dto.EmergencyAlertResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "emergency.cancel", trace.WithAttributes(
		attribute.String("alert.owner_id", ownerID),
		attribute.Int("alert.id", int(emergencyID)),
	))
	defer span.End()

	alert, err := s.repo.Cancel(spanCtx, ownerID, emergencyID, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return dto.EmergencyAlertResponse{}, err
	}

	event := dto.EmergencyCancelledEvent{EmergencyID: alert.ID, UserID: alert.UserID}
	s.registry.SendToRoom(PoolRoom, dto.EventEmergencyCancelled, event)
	s.registry.Broadcast(dto.EventEmergencyCancelled, event)

	s.logger.Info().Uint("alert_id", alert.ID).Str("owner_id", ownerID).Msg("emergency alert cancelled")
	return dto.NewEmergencyAlertResponse(alert), nil
}

func (s *emergencyService) ListActive(ctx context.Context, ownerID string) ([]dto.EmergencyAlertResponse, error) {
	alerts, err := s.repo.ListActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return dto.NewEmergencyAlertResponseSlice(alerts), nil
}

// PoolFeed lists every active alert for the shared responder pool. Access
// control happens at the route; the data itself is not owner-scoped.
func (s *emergencyService) PoolFeed(ctx context.Context) ([]dto.EmergencyAlertResponse, error) {
	alerts, err := s.repo.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewEmergencyAlertResponseSlice(alerts), nil
}
