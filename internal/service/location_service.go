package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/observability"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/repository"
)

// LocationService accepts position samples, persists them append-only and
// fans them out to the sender's authorised viewers.
type LocationService interface {
	Update(ctx context.Context, userID string, req dto.LocationUpdateRequest) (dto.LocationSampleResponse, error)
	Latest(ctx context.Context, userID string) (dto.LocationSampleResponse, error)
	AuthorizedFamily(ctx context.Context, viewerID string) ([]dto.FamilyLocationResponse, error)
}

type locationService struct {
	repo      repository.LocationRepository
	directory DirectoryService
	registry  *realtime.Registry
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLocationService constructs a location relay.
func NewLocationService(repo repository.LocationRepository, directory DirectoryService, registry *realtime.Registry, validate *validator.Validate, logger zerolog.Logger) LocationService {
	return &locationService{
		repo:      repo,
		directory: directory,
		registry:  registry,
		validator: validate,
		logger:    logger.With().Str("component", "location_service").Logger(),
	}
}

// Update persists one sample and pushes location:updated to every accepted
// relation holding canViewLocation. Each call produces at most one row and
// at most one fan-out; a failed write suppresses the fan-out entirely.
func (s *locationService) Update(ctx context.Context, userID string, req dto.LocationUpdateRequest) (dto.LocationSampleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LocationSampleResponse{}, err
	}

	sample := models.LocationSample{
		UserID:       userID,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Accuracy:     req.Accuracy,
		HeartRate:    req.HeartRate,
		BatteryLevel: req.BatteryLevel,
		IsTracking:   true,
		RecordedAt:   time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, &sample); err != nil {
		observability.PersistenceFailures().WithLabelValues("location_save").Inc()
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist location sample")
		return dto.LocationSampleResponse{}, err
	}

	s.fanOut(ctx, sample)
	return dto.NewLocationSampleResponse(sample), nil
}

func (s *locationService) Latest(ctx context.Context, userID string) (dto.LocationSampleResponse, error) {
	sample, err := s.repo.LatestByUser(ctx, userID)
	if err != nil {
		return dto.LocationSampleResponse{}, err
	}
	return dto.NewLocationSampleResponse(sample), nil
}

// AuthorizedFamily resolves the latest sample of every member the viewer may
// see. Members who never reported a position are omitted.
func (s *locationService) AuthorizedFamily(ctx context.Context, viewerID string) ([]dto.FamilyLocationResponse, error) {
	relations, err := s.directory.ViewableMembers(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FamilyLocationResponse, 0, len(relations))
	for _, relation := range relations {
		sample, err := s.repo.LatestByUser(ctx, relation.OwnerID)
		if errors.Is(err, repository.ErrNoLocation) {
			continue
		}
		if err != nil {
			return nil, err
		}

		entry := dto.FamilyLocationResponse{
			MemberID: relation.OwnerID,
			Latest:   dto.NewLocationSampleResponse(sample),
		}
		if profile, err := s.directory.Profile(ctx, relation.OwnerID); err == nil {
			entry.MemberName = profile.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// fanOut pushes to authorised viewers' personal rooms only. The permission
// filter matches the query path; unrestricted broadcast is deliberately not
// offered.
func (s *locationService) fanOut(ctx context.Context, sample models.LocationSample) {
	viewers, err := s.directory.LocationViewers(ctx, sample.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", sample.UserID).Msg("failed to resolve location viewers")
		return
	}

	event := dto.LocationUpdatedEvent{
		UserID:       sample.UserID,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Accuracy:     sample.Accuracy,
		HeartRate:    sample.HeartRate,
		BatteryLevel: sample.BatteryLevel,
		Timestamp:    sample.RecordedAt,
	}

	for _, viewerID := range viewers {
		s.registry.SendToRoom(realtime.PersonalRoom(viewerID), dto.EventLocationUpdated, event)
	}
}
