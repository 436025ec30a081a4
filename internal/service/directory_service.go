package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/repository"
)

// DirectoryService is the read-only adapter over the account service's user
// and relationship data. The realtime layer never mutates the graph.
type DirectoryService interface {
	Profile(ctx context.Context, userID string) (models.User, error)
	Responders(ctx context.Context, ownerID string) ([]models.FamilyRelation, error)
	LocationViewers(ctx context.Context, ownerID string) ([]string, error)
	ViewableMembers(ctx context.Context, viewerID string) ([]models.FamilyRelation, error)
}

type directoryService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
	redis     *redis.Client
	cacheKey  string
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewDirectoryService constructs the directory adapter. The redis client is
// optional; without it every Profile call hits the store.
func NewDirectoryService(users repository.UserRepository, relations repository.RelationRepository, redisClient *redis.Client, channelBase string, cacheTTL time.Duration, logger zerolog.Logger) DirectoryService {
	cacheKey := ""
	if channelBase != "" {
		cacheKey = channelBase + ":directory"
	}

	return &directoryService{
		users:     users,
		relations: relations,
		redis:     redisClient,
		cacheKey:  cacheKey,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "directory_service").Logger(),
	}
}

func (s *directoryService) Profile(ctx context.Context, userID string) (models.User, error) {
	if cached := s.fetchCached(ctx, userID); cached != nil {
		return *cached, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	s.cache(ctx, user)
	return user, nil
}

func (s *directoryService) Responders(ctx context.Context, ownerID string) ([]models.FamilyRelation, error) {
	return s.relations.Responders(ctx, ownerID)
}

func (s *directoryService) LocationViewers(ctx context.Context, ownerID string) ([]string, error) {
	relations, err := s.relations.LocationViewers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	viewers := make([]string, 0, len(relations))
	for _, relation := range relations {
		viewers = append(viewers, relation.MemberID)
	}
	return viewers, nil
}

func (s *directoryService) ViewableMembers(ctx context.Context, viewerID string) ([]models.FamilyRelation, error) {
	return s.relations.ViewableMembers(ctx, viewerID)
}

func (s *directoryService) fetchCached(ctx context.Context, userID string) *models.User {
	if s.redis == nil || s.cacheKey == "" {
		return nil
	}

	result, err := s.redis.Get(ctx, fmt.Sprintf("%s:%s", s.cacheKey, userID)).Result()
	if err != nil {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(result), &user); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached profile")
		return nil
	}
	return &user
}

func (s *directoryService) cache(ctx context.Context, user models.User) {
	if s.redis == nil || s.cacheKey == "" {
		return
	}

	payload, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal profile for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", s.cacheKey, user.ID)
	if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache profile")
	}
}
