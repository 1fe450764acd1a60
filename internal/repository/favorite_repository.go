package repository

import (
	"context"
	"damoyeo/internal/models"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type favoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Toggle removes the favorite when present, otherwise adds it, and reports
// the resulting state.
func (r *favoriteRepository) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	var favorited bool

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM favorite WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return fmt.Errorf("ошибка при удалении из избранного: %w", err)
		}

		removed, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("ошибка при проверке удаленных строк: %w", err)
		}
		if removed > 0 {
			favorited = false
			return nil
		}

		// a concurrent toggle may have inserted the row already; it is favorited either way
		_, err = tx.ExecContext(ctx, `
			INSERT INTO favorite (post_id, user_id, created_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
			ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
			}
			return fmt.Errorf("ошибка при добавлении в избранное: %w", err)
		}

		favorited = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return favorited, nil
}

func (r *favoriteRepository) IsFavorited(ctx context.Context, postID, userID string) (bool, error) {
	var favorited bool
	err := r.db.GetContext(ctx, &favorited,
		`SELECT EXISTS(SELECT 1 FROM favorite WHERE post_id = $1 AND user_id = $2)`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке избранного: %w", err)
	}

	return favorited, nil
}

func (r *favoriteRepository) Count(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM favorite WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете избранного: %w", err)
	}

	return count, nil
}
