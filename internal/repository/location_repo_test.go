package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/havencare/haven-go-api/internal/models"
)

func TestLocationRepositoryLatestByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLocationRepository(db)

	older := models.LocationSample{UserID: "user-1", Latitude: -6.2, Longitude: 106.8, RecordedAt: time.Now().Add(-time.Minute).UTC()}
	newer := models.LocationSample{UserID: "user-1", Latitude: -6.3, Longitude: 106.9, RecordedAt: time.Now().UTC()}
	other := models.LocationSample{UserID: "user-2", Latitude: 1.0, Longitude: 2.0, RecordedAt: time.Now().UTC()}
	for _, s := range []*models.LocationSample{&older, &newer, &other} {
		require.NoError(t, repo.Save(context.Background(), s))
	}

	latest, err := repo.LatestByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, newer.ID, latest.ID)
	require.Equal(t, -6.3, latest.Latitude)

	_, err = repo.LatestByUser(context.Background(), "silent-user")
	require.ErrorIs(t, err, ErrNoLocation)
}
