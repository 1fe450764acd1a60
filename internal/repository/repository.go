package repository

import (
	"context"
	"damoyeo/internal/models"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateProfileImage(ctx context.Context, userID string, imageURL *string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string, expiryTime time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
	GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	List(ctx context.Context, category string, sort models.PostSort) ([]models.Post, error)
	GetByAuthorID(ctx context.Context, authorID string) ([]models.Post, error)
	GetParticipatedBy(ctx context.Context, userID string) ([]models.Post, error)
	GetFavoritedBy(ctx context.Context, userID string) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, postID, authorID string) error
}

type ImageRepository interface {
	AddToPost(ctx context.Context, postID, imageURL string) (*models.Post, error)
	RemoveFromPost(ctx context.Context, postID, imageURL string) (*models.Post, error)
	GetByPostID(ctx context.Context, postID string) ([]string, error)
}

type ParticipationRepository interface {
	Join(ctx context.Context, postID, userID string) error
	Leave(ctx context.Context, postID, userID string) error
	Count(ctx context.Context, postID string) (int, error)
	IsJoined(ctx context.Context, postID, userID string) (bool, error)
	ListByPost(ctx context.Context, postID string) ([]models.Participant, error)
}

type FavoriteRepository interface {
	Toggle(ctx context.Context, postID, userID string) (bool, error)
	IsFavorited(ctx context.Context, postID, userID string) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
}

type ChatRepository interface {
	FindOrCreateRoom(ctx context.Context, userA, userB string) (string, error)
	GetByID(ctx context.Context, chatID string) (*models.ChatRoom, error)
	ListForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	SetPinned(ctx context.Context, chatID string, pinned bool) error
	Exit(ctx context.Context, chatID, userID string) (bool, error)
	UpdateLastMessage(ctx context.Context, chatID, text string, timestamp time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByChat(ctx context.Context, chatID string) ([]models.Message, error)
	MarkAllReadFrom(ctx context.Context, chatID, senderID string) (int64, error)
	MarkAllReadFor(ctx context.Context, chatID, readerID string) (int64, error)
}

type TablesRepository interface {
	CountTablesDB(ctx context.Context) (int, error)
	ExistingTables(ctx context.Context, names []string) ([]string, error)
}

type Repository struct {
	User          UserRepository
	Post          PostRepository
	Image         ImageRepository
	Participation ParticipationRepository
	Favorite      FavoriteRepository
	Chat          ChatRepository
	Message       MessageRepository
	Tables        TablesRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:          NewUserRepository(db),
		Post:          NewPostRepository(db),
		Image:         NewImageRepository(db),
		Participation: NewParticipationRepository(db),
		Favorite:      NewFavoriteRepository(db),
		Chat:          NewChatRepository(db),
		Message:       NewMessageRepository(db),
		Tables:        NewTablesRepository(db),
	}
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при открытии транзакции: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return err != nil && strings.Contains(err.Error(), "violates foreign key constraint")
}
