package repository

import (
	"context"
	"damoyeo/internal/models"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type participationRepository struct {
	db *sqlx.DB
}

func NewParticipationRepository(db *sqlx.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

// Join locks the post row so that the recruit limit is checked and the entry
// inserted without another join slipping in between.
func (r *participationRepository) Join(ctx context.Context, postID, userID string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var recruit int
		err := tx.GetContext(ctx, &recruit, `SELECT recruit FROM posts WHERE post_id = $1 FOR UPDATE`, postID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("пост с ID %s: %w", postID, models.ErrPostNotFound)
			}
			return fmt.Errorf("ошибка при получении поста: %w", err)
		}

		var joined bool
		err = tx.GetContext(ctx, &joined,
			`SELECT EXISTS(SELECT 1 FROM proposers WHERE post_id = $1 AND user_id = $2)`, postID, userID)
		if err != nil {
			return fmt.Errorf("ошибка при проверке участия: %w", err)
		}
		if joined {
			return models.ErrAlreadyJoined
		}

		var count int
		err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM proposers WHERE post_id = $1`, postID)
		if err != nil {
			return fmt.Errorf("ошибка при подсчете участников: %w", err)
		}
		if count >= recruit {
			return models.ErrRecruitmentFull
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO proposers (post_id, user_id, created_at) VALUES ($1, $2, CURRENT_TIMESTAMP)`, postID, userID)
		if err != nil {
			if isUniqueViolation(err) {
				return models.ErrAlreadyJoined
			}
			return fmt.Errorf("ошибка при добавлении участника: %w", err)
		}

		return nil
	})
}

func (r *participationRepository) Leave(ctx context.Context, postID, userID string) error {
	query := `DELETE FROM proposers WHERE post_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении участника: %w", err)
	}

	return expectAffected(result, models.ErrNotJoined)
}

func (r *participationRepository) Count(ctx context.Context, postID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM proposers WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете участников: %w", err)
	}

	return count, nil
}

func (r *participationRepository) IsJoined(ctx context.Context, postID, userID string) (bool, error) {
	var joined bool
	err := r.db.GetContext(ctx, &joined,
		`SELECT EXISTS(SELECT 1 FROM proposers WHERE post_id = $1 AND user_id = $2)`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке участия: %w", err)
	}

	return joined, nil
}

func (r *participationRepository) ListByPost(ctx context.Context, postID string) ([]models.Participant, error) {
	query := `
		SELECT u.user_id, u.user_name, u.user_nickname, u.profile_image, pr.created_at
		FROM proposers pr
		JOIN users u ON u.user_id = pr.user_id
		WHERE pr.post_id = $1
		ORDER BY pr.created_at ASC
	`

	participants := []models.Participant{}
	err := r.db.SelectContext(ctx, &participants, query, postID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка участников: %w", err)
	}

	return participants, nil
}
