package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/havencare/haven-go-api/internal/models"
)

// RelationRepository reads the permissioned family graph. The graph is owned
// by the account service; this layer never writes it.
type RelationRepository interface {
	Responders(ctx context.Context, ownerID string) ([]models.FamilyRelation, error)
	LocationViewers(ctx context.Context, ownerID string) ([]models.FamilyRelation, error)
	ViewableMembers(ctx context.Context, viewerID string) ([]models.FamilyRelation, error)
}

type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository constructs a relation repository backed by GORM.
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

// Responders returns the accepted relations whose member should be notified
// of the owner's emergencies.
func (r *relationRepository) Responders(ctx context.Context, ownerID string) ([]models.FamilyRelation, error) {
	return r.accepted(ctx, "owner_id = ? AND can_receive_emergency = ?", ownerID)
}

// LocationViewers returns the accepted relations whose member may see the
// owner's live position.
func (r *relationRepository) LocationViewers(ctx context.Context, ownerID string) ([]models.FamilyRelation, error) {
	return r.accepted(ctx, "owner_id = ? AND can_view_location = ?", ownerID)
}

// ViewableMembers is the inverse lookup: the owners whose location the given
// viewer is allowed to see.
func (r *relationRepository) ViewableMembers(ctx context.Context, viewerID string) ([]models.FamilyRelation, error) {
	return r.accepted(ctx, "member_id = ? AND can_view_location = ?", viewerID)
}

func (r *relationRepository) accepted(ctx context.Context, cond string, id string) ([]models.FamilyRelation, error) {
	var relations []models.FamilyRelation
	err := r.db.WithContext(ctx).
		Where(cond, id, true).
		Where("status = ?", models.RelationAccepted).
		Order("id ASC").
		Find(&relations).Error
	if err != nil {
		return nil, err
	}
	return relations, nil
}
