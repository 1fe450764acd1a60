package repository

import (
	"context"
	"damoyeo/internal/models"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type postRepository struct {
	db *sqlx.DB
}

type CreatePostRequest struct {
	Title         string    `json:"title" validate:"required,max=100"`
	Content       string    `json:"content" validate:"required"`
	Tag           string    `json:"tag" validate:"required"`
	Category      string    `json:"category" validate:"required"`
	Recruit       int       `json:"recruit" validate:"min=1"`
	Cost          int       `json:"cost" validate:"min=0"`
	Address       string    `json:"address" validate:"required"`
	DetailAddress string    `json:"detailAddress"`
	MeetingTime   time.Time `json:"meetingTime" validate:"required"`
}

type UpdatePostRequest = CreatePostRequest

var postOrderBy = map[models.PostSort]string{
	models.SortLatest:    "created_at DESC",
	models.SortOldest:    "created_at ASC",
	models.SortTitleAsc:  "title ASC, created_at DESC",
	models.SortTitleDesc: "title DESC, created_at DESC",
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post, enrolls the author as the first participant and
// bumps the author's post count in one transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.PostID == "" {
		post.PostID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.ImageURLs == nil {
		post.ImageURLs = []string{}
	}
	if len(post.ImageURLs) > 0 {
		post.ImageURL = post.ImageURLs[0]
	}

	query := `
		INSERT INTO posts
		(post_id, author_id, title, content, tag, category, recruit, cost, address, detail_address,
			meeting_time, created_at, image_url, image_urls)
		VALUES
		(:post_id, :author_id, :title, :content, :tag, :category, :recruit, :cost, :address, :detail_address,
			:meeting_time, :created_at, :image_url, :image_urls)
	`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, post); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("автор %s: %w", post.AuthorID, models.ErrUserNotFound)
			}
			return fmt.Errorf("ошибка при создании поста: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO proposers (post_id, user_id, created_at) VALUES ($1, $2, $3)`,
			post.PostID, post.AuthorID, post.CreatedAt)
		if err != nil {
			return fmt.Errorf("ошибка при добавлении автора в участники: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET user_post_count = user_post_count + 1 WHERE user_id = $1`, post.AuthorID)
		if err != nil {
			return fmt.Errorf("ошибка при обновлении счетчика постов: %w", err)
		}

		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `
		SELECT * FROM posts
		WHERE post_id = $1
	`

	var post models.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении поста: %w", err)
	}

	return &post, nil
}

func (r *postRepository) List(ctx context.Context, category string, sort models.PostSort) ([]models.Post, error) {
	orderBy, ok := postOrderBy[sort]
	if !ok {
		orderBy = postOrderBy[models.SortLatest]
	}

	var (
		posts []models.Post
		err   error
	)

	if category == "" || category == models.CategoryAll {
		err = r.db.SelectContext(ctx, &posts, `SELECT * FROM posts ORDER BY `+orderBy)
	} else {
		err = r.db.SelectContext(ctx, &posts, `SELECT * FROM posts WHERE category = $1 ORDER BY `+orderBy, category)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка постов: %w", err)
	}

	return posts, nil
}

func (r *postRepository) GetByAuthorID(ctx context.Context, authorID string) ([]models.Post, error) {
	query := `
		SELECT * FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
	`

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении постов пользователя: %w", err)
	}

	return posts, nil
}

func (r *postRepository) GetParticipatedBy(ctx context.Context, userID string) ([]models.Post, error) {
	query := `
		SELECT p.* FROM posts p
		JOIN proposers pr ON pr.post_id = p.post_id
		WHERE pr.user_id = $1
		ORDER BY pr.created_at DESC
	`

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении встреч пользователя: %w", err)
	}

	return posts, nil
}

func (r *postRepository) GetFavoritedBy(ctx context.Context, userID string) ([]models.Post, error) {
	query := `
		SELECT p.* FROM posts p
		JOIN favorite f ON f.post_id = p.post_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении избранного: %w", err)
	}

	return posts, nil
}

// Update rewrites the editable fields. The post row is locked the same way
// Join locks it, so recruit never drops below the enrolled count.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owner string
		err := tx.GetContext(ctx, &owner, `SELECT author_id FROM posts WHERE post_id = $1 FOR UPDATE`, post.PostID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("пост с ID %s: %w", post.PostID, models.ErrPostNotFound)
			}
			return fmt.Errorf("ошибка при получении поста: %w", err)
		}

		if owner != post.AuthorID {
			return fmt.Errorf("нельзя изменить чужой пост: %w", models.ErrForbidden)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM proposers WHERE post_id = $1`, post.PostID); err != nil {
			return fmt.Errorf("ошибка при подсчете участников: %w", err)
		}
		if post.Recruit < count {
			return fmt.Errorf("участников %d, набор %d: %w", count, post.Recruit, models.ErrRecruitBelowCount)
		}

		query := `
			UPDATE posts SET
				title = :title,
				content = :content,
				tag = :tag,
				category = :category,
				recruit = :recruit,
				cost = :cost,
				address = :address,
				detail_address = :detail_address,
				meeting_time = :meeting_time
			WHERE post_id = :post_id AND author_id = :author_id
		`

		result, err := tx.NamedExecContext(ctx, query, post)
		if err != nil {
			return fmt.Errorf("ошибка при обновлении поста: %w", err)
		}

		return expectAffected(result, fmt.Errorf("пост с ID %s: %w", post.PostID, models.ErrPostNotFound))
	})
}

// Delete removes the post of the given author. Ledger rows go with it through
// ON DELETE CASCADE.
func (r *postRepository) Delete(ctx context.Context, postID, authorID string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var owner string
		err := tx.GetContext(ctx, &owner, `SELECT author_id FROM posts WHERE post_id = $1 FOR UPDATE`, postID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
			}
			return fmt.Errorf("ошибка при получении поста: %w", err)
		}

		if owner != authorID {
			return fmt.Errorf("нельзя удалить чужой пост: %w", models.ErrForbidden)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1`, postID); err != nil {
			return fmt.Errorf("ошибка при удалении поста: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET user_post_count = GREATEST(user_post_count - 1, 0) WHERE user_id = $1`, authorID)
		if err != nil {
			return fmt.Errorf("ошибка при обновлении счетчика постов: %w", err)
		}

		return nil
	})
}
