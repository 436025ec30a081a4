package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/handler"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/service"
)

type mockEmergencyService struct {
	triggered   *dto.EmergencyTriggerRequest
	broadcasted []uint
	cancelErr   error
	response    dto.EmergencyAlertResponse
}

func (m *mockEmergencyService) Trigger(_ context.Context, ownerID string, req dto.EmergencyTriggerRequest) (dto.EmergencyAlertResponse, error) {
	m.triggered = &req
	return m.response, nil
}

func (m *mockEmergencyService) BroadcastTrigger(_ context.Context, emergencyID uint) error {
	m.broadcasted = append(m.broadcasted, emergencyID)
	return nil
}

func (m *mockEmergencyService) Cancel(_ context.Context, ownerID string, emergencyID uint) (dto.EmergencyAlertResponse, error) {
	if m.cancelErr != nil {
		return dto.EmergencyAlertResponse{}, m.cancelErr
	}
	return m.response, nil
}

func (m *mockEmergencyService) ListActive(_ context.Context, ownerID string) ([]dto.EmergencyAlertResponse, error) {
	return []dto.EmergencyAlertResponse{m.response}, nil
}

func (m *mockEmergencyService) PoolFeed(_ context.Context) ([]dto.EmergencyAlertResponse, error) {
	return []dto.EmergencyAlertResponse{m.response}, nil
}

func newEmergencyApp(svc service.EmergencyService, userID string, role ...string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/emergencies", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		if len(role) > 0 {
			c.Locals("user_role", role[0])
		}
		return c.Next()
	})
	handler.NewEmergencyHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestEmergencyHandler_TriggerBroadcastsOnSamePath(t *testing.T) {
	lat, lng := -6.2, 106.8
	svc := &mockEmergencyService{response: dto.EmergencyAlertResponse{ID: 7, UserID: "user-1", Type: models.AlertTypeSOS, Status: models.AlertStatusActive}}
	app := newEmergencyApp(svc, "user-1")

	body, err := json.Marshal(dto.EmergencyTriggerRequest{Type: models.AlertTypeSOS, Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergencies/trigger", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                       `json:"success"`
		Data    dto.EmergencyAlertResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(7), response.Data.ID)
	require.NotNil(t, svc.triggered)
	require.Equal(t, []uint{7}, svc.broadcasted, "notification must not depend on a websocket")
}

func TestEmergencyHandler_TriggerRequiresAuth(t *testing.T) {
	app := newEmergencyApp(&mockEmergencyService{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergencies/trigger", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestEmergencyHandler_CancelUnknownAlert(t *testing.T) {
	svc := &mockEmergencyService{cancelErr: service.ErrAlertNotFound}
	app := newEmergencyApp(svc, "user-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/emergencies/99/cancel", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEmergencyHandler_FeedIsResponderOnly(t *testing.T) {
	svc := &mockEmergencyService{response: dto.EmergencyAlertResponse{ID: 7, Status: models.AlertStatusActive}}

	app := newEmergencyApp(svc, "doctor-1", models.RoleResponder)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/emergencies/feed", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	app = newEmergencyApp(svc, "user-1", models.RoleGuardian)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/emergencies/feed", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestEmergencyHandler_CancelRejectsBadID(t *testing.T) {
	app := newEmergencyApp(&mockEmergencyService{}, "user-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/emergencies/not-a-number/cancel", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
