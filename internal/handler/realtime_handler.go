package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/middleware"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/observability"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/service"
)

// RealtimeHandler upgrades authenticated connections and dispatches the
// closed set of inbound realtime events to the owning services. Events from
// one connection are handled strictly in arrival order.
type RealtimeHandler struct {
	registry  *realtime.Registry
	presence  *service.PresenceService
	location  service.LocationService
	emergency service.EmergencyService
	chat      service.ChatService
	logger    zerolog.Logger
}

// NewRealtimeHandler creates the websocket entrypoint.
func NewRealtimeHandler(registry *realtime.Registry, presence *service.PresenceService, location service.LocationService, emergency service.EmergencyService, chat service.ChatService, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		registry:  registry,
		presence:  presence,
		location:  location,
		emergency: emergency,
		chat:      chat,
		logger:    logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route. The JWT middleware runs before the
// upgrade, so an invalid credential is refused before any event is read.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	userID := localString(conn, "user_id")
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	userName := localString(conn, "user_name")
	role := localString(conn, "user_role")

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	session := realtime.NewSession(conn, userID, userName, role, h.logger)
	h.registry.Add(session)
	if role == models.RoleResponder {
		h.registry.Join(session, service.PoolRoom)
	}
	h.presence.Connected(session)

	h.logger.Info().Str("user_id", userID).Msg("realtime session connected")
	h.readLoop(baseCtx, session, conn)

	h.registry.Remove(session)
	h.presence.Disconnected(session)
	h.logger.Info().Str("user_id", userID).Msg("realtime session disconnected")
}

// readLoop processes inbound envelopes sequentially until the connection
// drops. A malformed or unknown event is logged and skipped, never fatal.
func (h *RealtimeHandler) readLoop(ctx context.Context, session *realtime.Session, conn *websocket.Conn) {
	for {
		var envelope dto.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			h.logger.Debug().Err(err).Str("user_id", session.UserID).Msg("realtime read loop ended")
			return
		}

		observability.RealtimeEvents().WithLabelValues(envelope.Event).Inc()

		if err := h.dispatch(ctx, session, envelope); err != nil {
			h.logger.Warn().Err(err).Str("event", envelope.Event).Str("user_id", session.UserID).Msg("failed to handle realtime event")
		}

		if session.Closed() {
			return
		}
	}
}

func (h *RealtimeHandler) dispatch(ctx context.Context, session *realtime.Session, envelope dto.Envelope) error {
	switch envelope.Event {
	case dto.EventLocationUpdate:
		var req dto.LocationUpdateRequest
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		// Errors stay on this side of the socket; the REST path reports them.
		_, err := h.location.Update(ctx, session.UserID, req)
		return err

	case dto.EventEmergencyTrigger:
		var req dto.EmergencyRefRequest
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		return h.emergency.BroadcastTrigger(ctx, req.EmergencyID)

	case dto.EventEmergencyCancel:
		var req dto.EmergencyRefRequest
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		_, err := h.emergency.Cancel(ctx, session.UserID, req.EmergencyID)
		return err

	case dto.EventChatPrivate:
		var req dto.ChatPrivateRequest
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		_, err := h.chat.Send(ctx, session.UserID, session.UserName, req)
		return err

	case dto.EventChatTyping:
		var req dto.ChatTypingEvent
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		h.chat.Typing(session.UserID, req.To, req.IsTyping)
		return nil

	case dto.EventChatMarkRead:
		var req dto.ChatMarkReadRequest
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		return h.chat.MarkRead(ctx, session.UserID, req.From)

	case dto.EventHealthUpdate:
		var req dto.HealthUpdateEvent
		if err := json.Unmarshal(envelope.Data, &req); err != nil {
			return err
		}
		req.UserID = session.UserID
		if req.UserName == "" {
			req.UserName = session.UserName
		}
		h.registry.SendToRoom(service.PoolRoom, dto.EventHealthStatus, req)
		return nil

	case dto.EventDoctorJoin:
		h.registry.Join(session, service.PoolRoom)
		return nil

	default:
		return fmt.Errorf("unknown realtime event %q", envelope.Event)
	}
}

func localString(conn *websocket.Conn, key string) string {
	if value := conn.Locals(key); value != nil {
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v)
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
