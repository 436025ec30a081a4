package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/observability"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/repository"
)

// ErrEmptyMessage indicates the message had no content left after
// sanitization and carried no image.
var ErrEmptyMessage = errors.New("message empty after sanitization")

// ChatService owns persistent two-party conversations: optimistic delivery,
// typing relay, read receipts and unread counters.
type ChatService interface {
	Send(ctx context.Context, senderID, senderName string, req dto.ChatPrivateRequest) (dto.ChatMessageResponse, error)
	MarkRead(ctx context.Context, readerID, otherID string) error
	Typing(senderID, recipientID string, isTyping bool)
	History(ctx context.Context, userA, userB string) ([]dto.ChatMessageResponse, error)
	UnreadTotal(ctx context.Context, userID string) (int, error)
}

type chatService struct {
	repo      repository.ChatRepository
	registry  *realtime.Registry
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewChatService constructs a chat relay.
func NewChatService(repo repository.ChatRepository, registry *realtime.Registry, validate *validator.Validate, logger zerolog.Logger) ChatService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	return &chatService{
		repo:      repo,
		registry:  registry,
		validator: validate,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "chat_service").Logger(),
		tracer:    otel.Tracer("github.com/havencare/haven-go-api/internal/service/chat"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Send appends a message to the pair's thread and delivers it. On success
// the pushed copy is promoted to delivered while the stored row stays sent
// until read; the sender gets a chat:delivered acknowledgment. A failed
// write degrades to best-effort delivery of the raw message: no unread
// update, no acknowledgment, error surfaced to the caller.
func (s *chatService) Send(ctx context.Context, senderID, senderName string, req dto.ChatPrivateRequest) (dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatMessageResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if body == "" && req.Image == "" {
		return dto.ChatMessageResponse{}, ErrEmptyMessage
	}

	if senderName == "" {
		senderName = req.UserName
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.sender_id", senderID),
		attribute.String("chat.recipient_id", req.To),
	))
	defer span.End()

	message := models.ChatMessage{
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		Image:      req.Image,
		Status:     models.MessageSent,
	}

	unlock := s.lockThread(senderID, req.To)
	_, err := s.repo.AppendMessage(spanCtx, &message, req.To)
	unlock()

	if err != nil {
		span.RecordError(err)
		observability.PersistenceFailures().WithLabelValues("chat_append").Inc()
		s.logger.Error().Err(err).Str("sender_id", senderID).Msg("failed to persist chat message, degrading to best-effort delivery")

		raw := dto.NewChatMessageResponse(message)
		raw.Timestamp = time.Now().UTC()
		s.registry.SendToRoom(realtime.PersonalRoom(req.To), dto.EventChatMessage, raw)
		return dto.ChatMessageResponse{}, err
	}

	delivered := dto.NewChatMessageResponse(message)
	delivered.Status = models.MessageDelivered
	s.registry.SendToRoom(realtime.PersonalRoom(req.To), dto.EventChatMessage, delivered)
	s.registry.SendToRoom(realtime.PersonalRoom(senderID), dto.EventChatDelivered, dto.ChatDeliveredEvent{
		To:        req.To,
		Timestamp: message.CreatedAt,
	})

	kind := "text"
	if req.Image != "" {
		kind = "image"
	}
	observability.ChatMessages().WithLabelValues(kind).Inc()

	return dto.NewChatMessageResponse(message), nil
}

// MarkRead flips the counterpart's unread messages to read and resets the
// reader's counter. Emits a chat:read receipt only when something changed;
// repeated calls are no-ops.
func (s *chatService) MarkRead(ctx context.Context, readerID, otherID string) error {
	now := time.Now().UTC()

	unlock := s.lockThread(readerID, otherID)
	changed, err := s.repo.MarkRead(ctx, readerID, otherID, now)
	unlock()

	if err != nil {
		observability.PersistenceFailures().WithLabelValues("chat_mark_read").Inc()
		return err
	}
	if changed == 0 {
		return nil
	}

	s.registry.SendToRoom(realtime.PersonalRoom(otherID), dto.EventChatRead, dto.ChatReadEvent{
		From:      readerID,
		Timestamp: now,
	})
	return nil
}

// Typing relays a typing indicator. No persistence, never fails; with the
// recipient offline the event lands in an empty room and vanishes.
func (s *chatService) Typing(senderID, recipientID string, isTyping bool) {
	s.registry.SendToRoom(realtime.PersonalRoom(recipientID), dto.EventChatTyping, dto.ChatTypingEvent{
		From:     senderID,
		IsTyping: isTyping,
	})
}

func (s *chatService) History(ctx context.Context, userA, userB string) ([]dto.ChatMessageResponse, error) {
	messages, err := s.repo.MessagesBetween(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	return dto.NewChatMessageResponseSlice(messages), nil
}

func (s *chatService) UnreadTotal(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadTotal(ctx, userID)
}

// lockThread serialises writes to one pair's thread so concurrent sends and
// read-marks cannot lose unread-counter updates.
func (s *chatService) lockThread(a, b string) func() {
	x, y := models.ThreadKey(a, b)
	key := x + "|" + y

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
