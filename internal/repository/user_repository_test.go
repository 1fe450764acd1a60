package repository

import (
	"context"
	"damoyeo/internal/models"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMockRepoDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, mock
}

var userColumns = []string{
	"user_id", "user_email", "password_hash", "user_name", "user_nickname", "user_phone_num",
	"profile_image", "user_created_at", "user_post_count", "refresh_token", "refresh_token_expiry_time",
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Успешное создание пользователя", func(t *testing.T) {
		user := &models.User{Email: "minsu@example.com", Name: "김민수", Nickname: "민수"}

		mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateUser(ctx, user, "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, user.UserID)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
		assert.False(t, user.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка при дублировании email", func(t *testing.T) {
		user := &models.User{Email: "minsu@example.com"}

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(errors.New("pq: duplicate key value violates unique constraint \"users_user_email_key\""))

		err := repo.CreateUser(ctx, user, "password123")

		assert.ErrorIs(t, err, models.ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetUserByID(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	userID := uuid.New().String()

	t.Run("Успешное получение пользователя по ID", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(userColumns).AddRow(
			userID, "minsu@example.com", "hash", "김민수", "민수", "010-1234-5678",
			nil, now, 2, "", time.Unix(0, 0),
		)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM users WHERE user_id = $1`)).
			WithArgs(userID).
			WillReturnRows(rows)

		user, err := repo.GetUserByID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, userID, user.UserID)
		assert.Equal(t, "민수", user.Nickname)
		assert.Equal(t, 2, user.PostCount)
		assert.Nil(t, user.ProfileImage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пользователь не найден", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM users WHERE user_id = $1`)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(ctx, "missing")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_VerifyPassword(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "Верный пароль", password: "secret123"},
		{name: "Неверный пароль", password: "wrong", wantErr: models.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := sqlmock.NewRows([]string{"user_id", "user_email", "password_hash"}).
				AddRow("u1", "minsu@example.com", string(hash))
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM users WHERE user_email = $1`)).
				WithArgs("minsu@example.com").
				WillReturnRows(rows)

			user, err := repo.VerifyPassword(ctx, "minsu@example.com", tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", user.UserID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Успешное обновление профиля", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(ctx, &models.User{UserID: "u1", Name: "김민수", Nickname: "민수"})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Профиль не найден", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProfile(ctx, &models.User{UserID: "missing"})

		assert.ErrorIs(t, err, models.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateProfileImage(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	url := "http://localhost:9000/images/profiles/u1/a.jpg"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET profile_image = $1 WHERE user_id = $2`)).
		WithArgs(url, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProfileImage(context.Background(), "u1", &url)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByRefreshToken(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Токен найден", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"user_id", "refresh_token"}).AddRow("u1", "refresh")
		mock.ExpectQuery(`SELECT \* FROM users`).WithArgs("refresh").WillReturnRows(rows)

		user, err := repo.GetUserByRefreshToken(ctx, "refresh")

		require.NoError(t, err)
		assert.Equal(t, "u1", user.UserID)
	})

	t.Run("Токен просрочен", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM users`).WithArgs("old").WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByRefreshToken(ctx, "old")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ClearRefreshToken(t *testing.T) {
	db, mock := newMockRepoDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.ClearRefreshToken(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
