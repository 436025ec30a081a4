package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/repository"
	"github.com/havencare/haven-go-api/internal/service"
	"github.com/havencare/haven-go-api/internal/utils"
)

// LocationHandler exposes the request/response location surface. Unlike the
// realtime path, persistence errors are reported to the caller here.
type LocationHandler struct {
	service service.LocationService
	logger  zerolog.Logger
}

// NewLocationHandler creates a location handler instance.
func NewLocationHandler(service service.LocationService, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		logger:  logger.With().Str("component", "location_handler").Logger(),
	}
}

// Register binds location routes under the provided router group.
func (h *LocationHandler) Register(router fiber.Router) {
	router.Post("/update", h.update)
	router.Get("/latest", h.latest)
	router.Get("/family", h.family)
}

func (h *LocationHandler) update(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	sample, err := h.service.Update(requestContext(c), userID, req)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist location update")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save location")
	}

	return utils.SendSuccess(c, "location updated", sample)
}

func (h *LocationHandler) latest(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	sample, err := h.service.Latest(requestContext(c), userID)
	if errors.Is(err, repository.ErrNoLocation) {
		return utils.SendError(c, fiber.StatusNotFound, "no location reported yet")
	}
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch latest location")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch location")
	}

	return utils.SendSuccess(c, "latest location", sample)
}

func (h *LocationHandler) family(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	members, err := h.service.AuthorizedFamily(requestContext(c), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to resolve family locations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch family locations")
	}

	return utils.SendSuccess(c, "family locations", members)
}
