package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/repository"
)

// recorderConn captures everything a session writer pushes at a client.
type recorderConn struct {
	mu     sync.Mutex
	events []dto.EnvelopeOut
}

func (c *recorderConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(dto.EnvelopeOut))
	return nil
}

func (c *recorderConn) Close() error { return nil }

func (c *recorderConn) snapshot() []dto.EnvelopeOut {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dto.EnvelopeOut, len(c.events))
	copy(out, c.events)
	return out
}

// await blocks until at least n events arrived and returns them.
func (c *recorderConn) await(t *testing.T, n int) []dto.EnvelopeOut {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.snapshot()) >= n
	}, time.Second, 10*time.Millisecond)
	return c.snapshot()
}

// assertSilent gives stray deliveries time to surface, then requires none.
func (c *recorderConn) assertSilent(t *testing.T) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, c.snapshot())
}

func connect(t *testing.T, registry *realtime.Registry, userID, role string) (*realtime.Session, *recorderConn) {
	t.Helper()
	conn := &recorderConn{}
	session := realtime.NewSession(conn, userID, userID, role, zerolog.Nop())
	registry.Add(session)
	return session, conn
}

// stubDirectory is an in-memory DirectoryService.
type stubDirectory struct {
	profiles      map[string]models.User
	responders    []models.FamilyRelation
	respondersErr error
	viewers       []string
	viewable      []models.FamilyRelation
}

func (s *stubDirectory) Profile(ctx context.Context, userID string) (models.User, error) {
	if user, ok := s.profiles[userID]; ok {
		return user, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *stubDirectory) Responders(ctx context.Context, ownerID string) ([]models.FamilyRelation, error) {
	return s.responders, s.respondersErr
}

func (s *stubDirectory) LocationViewers(ctx context.Context, ownerID string) ([]string, error) {
	return s.viewers, nil
}

func (s *stubDirectory) ViewableMembers(ctx context.Context, viewerID string) ([]models.FamilyRelation, error) {
	return s.viewable, nil
}
