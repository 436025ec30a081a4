package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/havencare/haven-go-api/internal/models"
)

// ErrUserNotFound indicates the directory has no record for an id.
var ErrUserNotFound = errors.New("user not found")

// UserRepository reads directory profiles.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
