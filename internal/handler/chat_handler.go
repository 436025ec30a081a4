package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/service"
	"github.com/havencare/haven-go-api/internal/utils"
)

// ChatHandler exposes the request/response chat surface. Messages sent here
// persist and fan out exactly like websocket sends, so delivery survives a
// dropped realtime connection.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/send", h.send)
	router.Get("/history/:userId", h.history)
	router.Post("/read/:userId", h.markRead)
	router.Get("/unread", h.unread)
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.ChatPrivateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.Send(requestContext(c), userID, requestUserName(c), req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, service.ErrEmptyMessage) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to send chat message")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to send message")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	otherID := c.Params("userId")
	if otherID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "userId required")
	}

	messages, err := h.service.History(requestContext(c), userID, otherID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch chat history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch history")
	}

	return utils.SendSuccess(c, "chat history", messages)
}

func (h *ChatHandler) markRead(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	otherID := c.Params("userId")
	if otherID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "userId required")
	}

	if err := h.service.MarkRead(requestContext(c), userID, otherID); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to mark messages read")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to mark read")
	}

	return utils.SendSuccess(c, "messages marked read", nil)
}

func (h *ChatHandler) unread(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	total, err := h.service.UnreadTotal(requestContext(c), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to count unread messages")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to count unread")
	}

	return utils.SendSuccess(c, "unread total", dto.ChatUnreadResponse{UserID: userID, Unread: total})
}
