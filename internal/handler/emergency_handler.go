package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/middleware"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/service"
	"github.com/havencare/haven-go-api/internal/utils"
)

// EmergencyHandler exposes the request/response surface for alerts. It
// mirrors the realtime handlers so a triggered alert survives a dropped
// websocket.
type EmergencyHandler struct {
	service service.EmergencyService
	logger  zerolog.Logger
}

// NewEmergencyHandler creates an emergency handler instance.
func NewEmergencyHandler(service service.EmergencyService, logger zerolog.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		service: service,
		logger:  logger.With().Str("component", "emergency_handler").Logger(),
	}
}

// Register binds emergency routes under the provided router group.
func (h *EmergencyHandler) Register(router fiber.Router) {
	router.Post("/trigger", h.trigger)
	router.Get("/active", h.listActive)
	router.Get("/feed", middleware.RequireRole(models.RoleResponder), h.feed)
	router.Post("/:id/cancel", h.cancel)
}

func (h *EmergencyHandler) trigger(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.EmergencyTriggerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	alert, err := h.service.Trigger(requestContext(c), userID, req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to trigger emergency alert")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to trigger alert")
	}

	// Fan-out happens on the same path so REST-only clients still notify
	// their responders.
	if err := h.service.BroadcastTrigger(requestContext(c), alert.ID); err != nil {
		h.logger.Warn().Err(err).Uint("alert_id", alert.ID).Msg("failed to broadcast alert")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "alert triggered", alert)
}

func (h *EmergencyHandler) cancel(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid alert id")
	}

	alert, err := h.service.Cancel(requestContext(c), userID, uint(id))
	if errors.Is(err, service.ErrAlertNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "alert not found")
	}
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to cancel emergency alert")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to cancel alert")
	}

	return utils.SendSuccess(c, "alert cancelled", alert)
}

func (h *EmergencyHandler) listActive(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	alerts, err := h.service.ListActive(requestContext(c), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list active alerts")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list alerts")
	}

	return utils.SendSuccess(c, "active alerts", alerts)
}

func (h *EmergencyHandler) feed(c *fiber.Ctx) error {
	alerts, err := h.service.PoolFeed(requestContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load responder feed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load feed")
	}

	return utils.SendSuccess(c, "active alerts", alerts)
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestUserID(c *fiber.Ctx) string {
	if value := c.Locals("user_id"); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func requestUserName(c *fiber.Ctx) string {
	if value := c.Locals("user_name"); value != nil {
		if name, ok := value.(string); ok {
			return name
		}
	}
	return ""
}
