package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/havencare/haven-go-api/internal/models"
)

// ErrAlertNotFound is returned when an alert does not exist or does not
// belong to the caller. The two cases are deliberately indistinguishable.
var ErrAlertNotFound = errors.New("emergency alert not found")

// AlertRepository persists emergency alerts and their responder lists.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.EmergencyAlert) error
	AttachResponders(ctx context.Context, alertID uint, responders []models.AlertResponder) error
	FindByID(ctx context.Context, id uint) (models.EmergencyAlert, error)
	Cancel(ctx context.Context, ownerID string, id uint, resolvedAt time.Time) (models.EmergencyAlert, error)
	ListActive(ctx context.Context, ownerID string) ([]models.EmergencyAlert, error)
	ListAllActive(ctx context.Context) ([]models.EmergencyAlert, error)
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository constructs an alert repository backed by GORM.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.EmergencyAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// AttachResponders is the second half of the two-step trigger write. A crash
// between Create and AttachResponders leaves an ACTIVE alert with an empty
// responder list, which readers must tolerate.
func (r *alertRepository) AttachResponders(ctx context.Context, alertID uint, responders []models.AlertResponder) error {
	if len(responders) == 0 {
		return nil
	}
	for i := range responders {
		responders[i].AlertID = alertID
	}
	return r.db.WithContext(ctx).Create(&responders).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uint) (models.EmergencyAlert, error) {
	var alert models.EmergencyAlert
	err := r.db.WithContext(ctx).
		Preload("Responders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.EmergencyAlert{}, ErrAlertNotFound
	}
	if err != nil {
		return models.EmergencyAlert{}, err
	}
	return alert, nil
}

func (r *alertRepository) Cancel(ctx context.Context, ownerID string, id uint, resolvedAt time.Time) (models.EmergencyAlert, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EmergencyAlert{}).
		Where("id = ? AND user_id = ? AND status = ?", id, ownerID, models.AlertStatusActive).
		Updates(map[string]any{
			"status":      models.AlertStatusCancelled,
			"resolved_at": resolvedAt,
		})
	if result.Error != nil {
		return models.EmergencyAlert{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.EmergencyAlert{}, ErrAlertNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *alertRepository) ListActive(ctx context.Context, ownerID string) ([]models.EmergencyAlert, error) {
	var alerts []models.EmergencyAlert
	err := r.db.WithContext(ctx).
		Preload("Responders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ? AND status = ?", ownerID, models.AlertStatusActive).
		Order("triggered_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListAllActive returns every ACTIVE alert regardless of owner. Feeds the
// responder pool dashboard.
func (r *alertRepository) ListAllActive(ctx context.Context) ([]models.EmergencyAlert, error) {
	var alerts []models.EmergencyAlert
	err := r.db.WithContext(ctx).
		Preload("Responders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("status = ?", models.AlertStatusActive).
		Order("triggered_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
