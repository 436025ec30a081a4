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

type mockChatService struct {
	sent     *dto.ChatPrivateRequest
	sendErr  error
	marked   []string
	history  []dto.ChatMessageResponse
	unread   int
	response dto.ChatMessageResponse
}

func (m *mockChatService) Send(_ context.Context, senderID, senderName string, req dto.ChatPrivateRequest) (dto.ChatMessageResponse, error) {
	m.sent = &req
	if m.sendErr != nil {
		return dto.ChatMessageResponse{}, m.sendErr
	}
	return m.response, nil
}

func (m *mockChatService) MarkRead(_ context.Context, readerID, otherID string) error {
	m.marked = append(m.marked, otherID)
	return nil
}

func (m *mockChatService) Typing(senderID, recipientID string, isTyping bool) {}

func (m *mockChatService) History(_ context.Context, userA, userB string) ([]dto.ChatMessageResponse, error) {
	return m.history, nil
}

func (m *mockChatService) UnreadTotal(_ context.Context, userID string) (int, error) {
	return m.unread, nil
}

func newChatApp(svc service.ChatService, userID string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/chat", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
			c.Locals("user_name", "Alice")
		}
		return c.Next()
	})
	handler.NewChatHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestChatHandler_Send(t *testing.T) {
	svc := &mockChatService{response: dto.ChatMessageResponse{ID: 1, From: "alice", Message: "hello", Status: models.MessageSent}}
	app := newChatApp(svc, "alice")

	body, err := json.Marshal(dto.ChatPrivateRequest{To: "bob", Message: "hello"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                    `json:"success"`
		Data    dto.ChatMessageResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "hello", response.Data.Message)
	require.NotNil(t, svc.sent)
	require.Equal(t, "bob", svc.sent.To)
}

func TestChatHandler_SendEmptyMessage(t *testing.T) {
	svc := &mockChatService{sendErr: service.ErrEmptyMessage}
	app := newChatApp(svc, "alice")

	body, err := json.Marshal(dto.ChatPrivateRequest{To: "bob", Message: "<script></script>"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChatHandler_MarkReadAndUnread(t *testing.T) {
	svc := &mockChatService{unread: 4}
	app := newChatApp(svc, "alice")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/chat/read/bob", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"bob"}, svc.marked)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chat/unread", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.ChatUnreadResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 4, response.Data.Unread)
	require.Equal(t, "alice", response.Data.UserID)
}

func TestChatHandler_RequiresAuth(t *testing.T) {
	app := newChatApp(&mockChatService{}, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/chat/unread", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
