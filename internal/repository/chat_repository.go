package repository

import (
	"context"
	"damoyeo/internal/models"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type chatRepository struct {
	db *sqlx.DB
}

func NewChatRepository(db *sqlx.DB) ChatRepository {
	return &chatRepository{db: db}
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// FindOrCreateRoom returns the room both users are in, creating it when there
// is none. Calls for the same pair are serialized by an advisory lock held
// until the transaction ends.
func (r *chatRepository) FindOrCreateRoom(ctx context.Context, userA, userB string) (string, error) {
	if userA == userB {
		return "", models.ErrSelfChat
	}

	var chatID string

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pairKey(userA, userB)); err != nil {
			return fmt.Errorf("ошибка при блокировке пары пользователей: %w", err)
		}

		err := tx.GetContext(ctx, &chatID,
			`SELECT chat_id FROM chats WHERE users @> $1::text[] ORDER BY last_updated_at DESC LIMIT 1`,
			pq.Array([]string{userA, userB}))
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ошибка при поиске чата: %w", err)
		}

		chatID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chats (chat_id, users, last_message, last_updated_at, pinned)
			VALUES ($1, $2, '', CURRENT_TIMESTAMP, false)
		`, chatID, pq.Array([]string{userA, userB}))
		if err != nil {
			return fmt.Errorf("ошибка при создании чата: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return chatID, nil
}

func (r *chatRepository) GetByID(ctx context.Context, chatID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.GetContext(ctx, &room, `SELECT * FROM chats WHERE chat_id = $1`, chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("чат %s: %w", chatID, models.ErrRoomNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении чата: %w", err)
	}

	return &room, nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	query := `
		SELECT * FROM chats
		WHERE $1 = ANY(users)
		ORDER BY pinned DESC, last_updated_at DESC
	`

	rooms := []models.ChatRoom{}
	err := r.db.SelectContext(ctx, &rooms, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка чатов: %w", err)
	}

	return rooms, nil
}

func (r *chatRepository) SetPinned(ctx context.Context, chatID string, pinned bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE chats SET pinned = $1 WHERE chat_id = $2`, pinned, chatID)
	if err != nil {
		return fmt.Errorf("ошибка при закреплении чата: %w", err)
	}

	return expectAffected(result, fmt.Errorf("чат %s: %w", chatID, models.ErrRoomNotFound))
}

// Exit removes the user from the room and deletes the room once nobody is
// left. It reports whether the room was deleted.
func (r *chatRepository) Exit(ctx context.Context, chatID, userID string) (bool, error) {
	var deleted bool

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var users pq.StringArray
		err := tx.GetContext(ctx, &users, `SELECT users FROM chats WHERE chat_id = $1 FOR UPDATE`, chatID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("чат %s: %w", chatID, models.ErrRoomNotFound)
			}
			return fmt.Errorf("ошибка при получении чата: %w", err)
		}

		remaining := make([]string, 0, len(users))
		for _, u := range users {
			if u != userID {
				remaining = append(remaining, u)
			}
		}
		if len(remaining) == len(users) {
			return models.ErrNotRoomMember
		}

		if len(remaining) == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = $1`, chatID); err != nil {
				return fmt.Errorf("ошибка при удалении чата: %w", err)
			}
			deleted = true
			return nil
		}

		_, err = tx.ExecContext(ctx, `UPDATE chats SET users = $1 WHERE chat_id = $2`, pq.Array(remaining), chatID)
		if err != nil {
			return fmt.Errorf("ошибка при выходе из чата: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

func (r *chatRepository) UpdateLastMessage(ctx context.Context, chatID, text string, timestamp time.Time) error {
	query := `
		UPDATE chats
		SET last_message = $1, last_updated_at = $2
		WHERE chat_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, text, timestamp, chatID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении последнего сообщения: %w", err)
	}

	return expectAffected(result, fmt.Errorf("чат %s: %w", chatID, models.ErrRoomNotFound))
}
