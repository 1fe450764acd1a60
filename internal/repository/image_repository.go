package repository

import (
	"context"
	"damoyeo/internal/models"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// imageRepository keeps posts.image_urls and posts.image_url in step:
// image_url is always the first element of image_urls, or empty.
type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) AddToPost(ctx context.Context, postID, imageURL string) (*models.Post, error) {
	query := `
		UPDATE posts SET
			image_urls = array_append(image_urls, $1::text),
			image_url = (array_append(image_urls, $1::text))[1]
		WHERE post_id = $2
		RETURNING *
	`

	var post models.Post
	err := r.db.GetContext(ctx, &post, query, imageURL, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
		}
		return nil, fmt.Errorf("ошибка при добавлении изображения: %w", err)
	}

	return &post, nil
}

func (r *imageRepository) RemoveFromPost(ctx context.Context, postID, imageURL string) (*models.Post, error) {
	query := `
		UPDATE posts SET
			image_urls = array_remove(image_urls, $1::text),
			image_url = COALESCE((array_remove(image_urls, $1::text))[1], '')
		WHERE post_id = $2 AND $1::text = ANY(image_urls)
		RETURNING *
	`

	var post models.Post
	err := r.db.GetContext(ctx, &post, query, imageURL, postID)
	if err == nil {
		return &post, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ошибка при удалении изображения: %w", err)
	}

	// nothing updated: either the post is gone or the url is not attached
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE post_id = $1)`, postID); err != nil {
		return nil, fmt.Errorf("ошибка при проверке поста: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
	}

	return nil, fmt.Errorf("изображение %s: %w", imageURL, models.ErrImageNotFound)
}

func (r *imageRepository) GetByPostID(ctx context.Context, postID string) ([]string, error) {
	query := `SELECT image_urls FROM posts WHERE post_id = $1`

	var urls pq.StringArray
	err := r.db.GetContext(ctx, &urls, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении изображений: %w", err)
	}

	return urls, nil
}
