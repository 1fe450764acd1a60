package repository

import (
	"context"
	"damoyeo/internal/models"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

var lastMessageMillis atomic.Int64

// nextMessageMillis returns the current epoch millis, bumped past the last
// value handed out so two sends in the same millisecond get distinct ids.
func nextMessageMillis(now time.Time) int64 {
	candidate := now.UnixMilli()
	for {
		last := lastMessageMillis.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if lastMessageMillis.CompareAndSwap(last, next) {
			return next
		}
	}
}

func NewMessageID(senderID string, now time.Time) string {
	return senderID + "_" + strconv.FormatInt(nextMessageMillis(now), 10)
}

// Create stores the message; the server clock sets the timestamp.
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.MessageID == "" {
		message.MessageID = NewMessageID(message.SenderID, time.Now())
	}

	query := `
		INSERT INTO messages (chat_id, message_id, sender_id, sender_name, message, is_read)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING sent_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		message.ChatID, message.MessageID, message.SenderID, message.SenderName, message.Message,
	).Scan(&message.Timestamp)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("чат %s: %w", message.ChatID, models.ErrRoomNotFound)
		}
		return fmt.Errorf("ошибка при отправке сообщения: %w", err)
	}

	message.IsRead = false
	return nil
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	query := `
		SELECT * FROM messages
		WHERE chat_id = $1
		ORDER BY sent_at ASC, message_id ASC
	`

	messages := []models.Message{}
	err := r.db.SelectContext(ctx, &messages, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений: %w", err)
	}

	return messages, nil
}

// MarkAllReadFrom flips every unread message of senderID in the room in one
// statement and returns how many were flipped.
func (r *messageRepository) MarkAllReadFrom(ctx context.Context, chatID, senderID string) (int64, error) {
	query := `
		UPDATE messages SET is_read = true
		WHERE chat_id = $1 AND sender_id = $2 AND is_read = false
	`

	return r.markRead(ctx, query, chatID, senderID)
}

// MarkAllReadFor flips every unread message in the room not sent by readerID,
// including those of members who already left.
func (r *messageRepository) MarkAllReadFor(ctx context.Context, chatID, readerID string) (int64, error) {
	query := `
		UPDATE messages SET is_read = true
		WHERE chat_id = $1 AND sender_id <> $2 AND is_read = false
	`

	return r.markRead(ctx, query, chatID, readerID)
}

func (r *messageRepository) markRead(ctx context.Context, query, chatID, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при отметке сообщений прочитанными: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	return rowsAffected, nil
}
