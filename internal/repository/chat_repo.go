package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/havencare/haven-go-api/internal/models"
)

// ErrThreadNotFound indicates no conversation exists between a pair yet.
var ErrThreadNotFound = errors.New("chat thread not found")

// ChatRepository persists two-party conversation threads and their messages.
type ChatRepository interface {
	AppendMessage(ctx context.Context, message *models.ChatMessage, recipientID string) (models.ChatThread, error)
	MarkRead(ctx context.Context, readerID, otherID string, readAt time.Time) (int64, error)
	MessagesBetween(ctx context.Context, userA, userB string) ([]models.ChatMessage, error)
	UnreadTotal(ctx context.Context, userID string) (int, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// AppendMessage creates the pair's thread on first contact, stores the
// message with status sent, bumps lastActive and increments the recipient's
// unread counter, all in one transaction.
func (r *chatRepository) AppendMessage(ctx context.Context, message *models.ChatMessage, recipientID string) (models.ChatThread, error) {
	var thread models.ChatThread

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findOrCreateThread(tx, message.SenderID, recipientID)
		if err != nil {
			return err
		}
		thread = found

		message.ThreadID = thread.ID
		if message.Status == "" {
			message.Status = models.MessageSent
		}
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		unread := thread.Unread
		if unread == nil {
			unread = datatypes.JSONMap{}
		}
		unread[recipientID] = UnreadCount(unread, recipientID) + 1

		thread.LastActive = message.CreatedAt
		thread.Unread = unread
		return tx.Model(&models.ChatThread{}).
			Where("id = ?", thread.ID).
			Updates(map[string]any{
				"last_active": thread.LastActive,
				"unread":      unread,
			}).Error
	})
	if err != nil {
		return models.ChatThread{}, err
	}
	return thread, nil
}

// MarkRead flips every message authored by otherID that the reader has not
// read yet and zeroes the reader's unread counter. Returns the number of
// messages changed; zero means the whole call was a no-op.
func (r *chatRepository) MarkRead(ctx context.Context, readerID, otherID string, readAt time.Time) (int64, error) {
	var changed int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		thread, err := threadByPair(tx, readerID, otherID)
		if errors.Is(err, ErrThreadNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Model(&models.ChatMessage{}).
			Where("thread_id = ? AND sender_id = ? AND status <> ?", thread.ID, otherID, models.MessageRead).
			Updates(map[string]any{
				"status":  models.MessageRead,
				"read_at": readAt,
			})
		if result.Error != nil {
			return result.Error
		}
		changed = result.RowsAffected

		if changed == 0 && UnreadCount(thread.Unread, readerID) == 0 {
			return nil
		}

		unread := thread.Unread
		if unread == nil {
			unread = datatypes.JSONMap{}
		}
		unread[readerID] = 0
		return tx.Model(&models.ChatThread{}).
			Where("id = ?", thread.ID).
			Update("unread", unread).Error
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *chatRepository) MessagesBetween(ctx context.Context, userA, userB string) ([]models.ChatMessage, error) {
	thread, err := threadByPair(r.db.WithContext(ctx), userA, userB)
	if errors.Is(err, ErrThreadNotFound) {
		return []models.ChatMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", thread.ID).
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatRepository) UnreadTotal(ctx context.Context, userID string) (int, error) {
	var threads []models.ChatThread
	if err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Find(&threads).Error; err != nil {
		return 0, err
	}

	total := 0
	for _, thread := range threads {
		total += UnreadCount(thread.Unread, userID)
	}
	return total, nil
}

// UnreadCount reads a participant's counter out of the thread's JSON map.
// Values round-trip through JSON as float64.
func UnreadCount(unread datatypes.JSONMap, userID string) int {
	if unread == nil {
		return 0
	}
	switch v := unread[userID].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func threadByPair(tx *gorm.DB, userA, userB string) (models.ChatThread, error) {
	a, b := models.ThreadKey(userA, userB)
	var thread models.ChatThread
	err := tx.Where("participant_a = ? AND participant_b = ?", a, b).First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ChatThread{}, ErrThreadNotFound
	}
	if err != nil {
		return models.ChatThread{}, err
	}
	return thread, nil
}

func findOrCreateThread(tx *gorm.DB, userA, userB string) (models.ChatThread, error) {
	thread, err := threadByPair(tx, userA, userB)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, ErrThreadNotFound) {
		return models.ChatThread{}, err
	}

	a, b := models.ThreadKey(userA, userB)
	thread = models.ChatThread{
		ParticipantA: a,
		ParticipantB: b,
		LastActive:   time.Now().UTC(),
		Unread:       datatypes.JSONMap{},
	}
	if err := tx.Create(&thread).Error; err != nil {
		return models.ChatThread{}, err
	}
	return thread, nil
}
