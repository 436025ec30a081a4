package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/realtime"
)

type stubChatRepo struct {
	messages  []models.ChatMessage
	nextID    uint
	appendErr error
	changed   int64
	markErr   error
	unread    int
}

func (s *stubChatRepo) AppendMessage(ctx context.Context, message *models.ChatMessage, recipientID string) (models.ChatThread, error) {
	if s.appendErr != nil {
		return models.ChatThread{}, s.appendErr
	}
	s.nextID++
	message.ID = s.nextID
	message.ThreadID = 1
	message.CreatedAt = time.Now().UTC()
	s.messages = append(s.messages, *message)
	a, b := models.ThreadKey(message.SenderID, recipientID)
	return models.ChatThread{ID: 1, ParticipantA: a, ParticipantB: b, Unread: datatypes.JSONMap{}}, nil
}

func (s *stubChatRepo) MarkRead(ctx context.Context, readerID, otherID string, readAt time.Time) (int64, error) {
	return s.changed, s.markErr
}

func (s *stubChatRepo) MessagesBetween(ctx context.Context, userA, userB string) ([]models.ChatMessage, error) {
	return s.messages, nil
}

func (s *stubChatRepo) UnreadTotal(ctx context.Context, userID string) (int, error) {
	return s.unread, nil
}

func newChatHarness(t *testing.T) (*stubChatRepo, *realtime.Registry, ChatService) {
	t.Helper()
	repo := &stubChatRepo{}
	registry := realtime.NewRegistry(zerolog.Nop())
	svc := NewChatService(repo, registry, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return repo, registry, svc
}

func TestChatServiceSendDeliversAndAcknowledges(t *testing.T) {
	repo, registry, svc := newChatHarness(t)
	_, aliceConn := connect(t, registry, "alice", "subject")
	_, bobConn := connect(t, registry, "bob", "guardian")

	sent, err := svc.Send(context.Background(), "alice", "Alice", dto.ChatPrivateRequest{To: "bob", Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, models.MessageSent, sent.Status, "the stored row stays sent until read")
	require.Equal(t, "hello", sent.Message)

	events := bobConn.await(t, 1)
	require.Equal(t, dto.EventChatMessage, events[0].Event)
	pushed := events[0].Data.(dto.ChatMessageResponse)
	require.Equal(t, "alice", pushed.From)
	require.Equal(t, "Alice", pushed.UserName)
	require.Equal(t, "hello", pushed.Message)
	require.Equal(t, models.MessageDelivered, pushed.Status, "the live copy is promoted to delivered")

	ackEvents := aliceConn.await(t, 1)
	require.Equal(t, dto.EventChatDelivered, ackEvents[0].Event)
	require.Equal(t, "bob", ackEvents[0].Data.(dto.ChatDeliveredEvent).To)

	_, err = svc.Send(context.Background(), "bob", "Bob", dto.ChatPrivateRequest{To: "alice", Message: "hi"})
	require.NoError(t, err)

	aliceEvents := aliceConn.await(t, 2)
	require.Equal(t, dto.EventChatMessage, aliceEvents[1].Event)
	require.Equal(t, "hi", aliceEvents[1].Data.(dto.ChatMessageResponse).Message)

	require.Len(t, repo.messages, 2)
	require.Equal(t, "hello", repo.messages[0].Body)
	require.Equal(t, "hi", repo.messages[1].Body)
}

func TestChatServiceSendSanitizesMarkup(t *testing.T) {
	repo, _, svc := newChatHarness(t)

	sent, err := svc.Send(context.Background(), "alice", "Alice", dto.ChatPrivateRequest{
		To:      "bob",
		Message: "<script>alert(1)</script><b>safe</b>",
	})
	require.NoError(t, err)
	require.Equal(t, "<b>safe</b>", sent.Message)

	_, err = svc.Send(context.Background(), "alice", "Alice", dto.ChatPrivateRequest{
		To:      "bob",
		Message: "<script>alert(1)</script>",
	})
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Len(t, repo.messages, 1)
}

func TestChatServiceSendDegradesOnPersistFailure(t *testing.T) {
	repo, registry, svc := newChatHarness(t)
	repo.appendErr = errors.New("database gone")
	_, aliceConn := connect(t, registry, "alice", "subject")
	_, bobConn := connect(t, registry, "bob", "guardian")

	_, err := svc.Send(context.Background(), "alice", "Alice", dto.ChatPrivateRequest{To: "bob", Message: "hello"})
	require.Error(t, err)

	events := bobConn.await(t, 1)
	require.Equal(t, dto.EventChatMessage, events[0].Event)
	pushed := events[0].Data.(dto.ChatMessageResponse)
	require.Equal(t, "hello", pushed.Message)
	require.Equal(t, models.MessageSent, pushed.Status, "no promotion without a stored row")

	aliceConn.assertSilent(t)
}

func TestChatServiceMarkReadNotifiesOnlyWhenSomethingChanged(t *testing.T) {
	repo, registry, svc := newChatHarness(t)
	_, bobConn := connect(t, registry, "bob", "guardian")

	repo.changed = 2
	require.NoError(t, svc.MarkRead(context.Background(), "alice", "bob"))

	events := bobConn.await(t, 1)
	require.Equal(t, dto.EventChatRead, events[0].Event)
	require.Equal(t, "alice", events[0].Data.(dto.ChatReadEvent).From)

	repo.changed = 0
	require.NoError(t, svc.MarkRead(context.Background(), "alice", "bob"))
	time.Sleep(50 * time.Millisecond)
	require.Len(t, bobConn.snapshot(), 1, "a no-op mark-read emits no receipt")
}

func TestChatServiceTypingRelay(t *testing.T) {
	_, registry, svc := newChatHarness(t)
	_, bobConn := connect(t, registry, "bob", "guardian")

	svc.Typing("alice", "bob", true)

	events := bobConn.await(t, 1)
	require.Equal(t, dto.EventChatTyping, events[0].Event)
	require.Equal(t, dto.ChatTypingEvent{From: "alice", IsTyping: true}, events[0].Data)
}

func TestChatServiceHistoryAndUnread(t *testing.T) {
	repo, _, svc := newChatHarness(t)
	repo.messages = []models.ChatMessage{
		{ID: 1, SenderID: "alice", Body: "hello", Status: models.MessageSent},
		{ID: 2, SenderID: "bob", Body: "hi", Status: models.MessageSent},
	}
	repo.unread = 3

	history, err := svc.History(context.Background(), "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "hello", history[0].Message)
	require.Equal(t, "hi", history[1].Message)

	total, err := svc.UnreadTotal(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 3, total)
}
