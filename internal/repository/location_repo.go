package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/havencare/haven-go-api/internal/models"
)

// ErrNoLocation indicates a user has never reported a position.
var ErrNoLocation = errors.New("no location sample for user")

// LocationRepository persists append-only position samples.
type LocationRepository interface {
	Save(ctx context.Context, sample *models.LocationSample) error
	LatestByUser(ctx context.Context, userID string) (models.LocationSample, error)
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository constructs a location repository backed by GORM.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Save(ctx context.Context, sample *models.LocationSample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

func (r *locationRepository) LatestByUser(ctx context.Context, userID string) (models.LocationSample, error) {
	var sample models.LocationSample
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LocationSample{}, ErrNoLocation
	}
	if err != nil {
		return models.LocationSample{}, err
	}
	return sample, nil
}
