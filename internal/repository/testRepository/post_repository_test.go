package testRepository

import (
	"context"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, mock
}

var postColumns = []string{
	"post_id", "author_id", "title", "content", "tag", "category", "recruit", "cost",
	"address", "detail_address", "meeting_time", "created_at", "image_url", "image_urls",
}

func TestNewPostRepository(t *testing.T) {
	db, _ := setupMockDB(t)

	repo := repository.NewPostRepository(db)

	assert.NotNil(t, repo)
}

func TestPostRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		post      *models.Post
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "Успешное создание поста, автор становится участником",
			post: &models.Post{
				PostID:   "post-1",
				AuthorID: "author",
				Title:    "주말 등산",
				Category: models.CategorySports,
				Recruit:  4,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO posts`).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(`INSERT INTO proposers`).
					WithArgs("post-1", "author", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET user_post_count = user_post_count + 1`)).
					WithArgs("author").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Ошибка при добавлении автора откатывает пост",
			post: &models.Post{PostID: "post-2", AuthorID: "author", Recruit: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO posts`).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(`INSERT INTO proposers`).WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("ошибка при добавлении автора в участники"),
		},
		{
			name: "Автор не существует",
			post: &models.Post{PostID: "post-3", AuthorID: "ghost", Recruit: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO posts`).
					WillReturnError(errors.New("pq: insert or update on table \"posts\" violates foreign key constraint"))
				mock.ExpectRollback()
			},
			wantErr: models.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)
			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.post)

			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
				assert.False(t, tt.post.CreatedAt.IsZero())
				assert.NotNil(t, tt.post.ImageURLs)
			case errors.Is(tt.wantErr, models.ErrUserNotFound):
				assert.ErrorIs(t, err, models.ErrUserNotFound)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Пост найден", func(t *testing.T) {
		rows := sqlmock.NewRows(postColumns).AddRow(
			"post-1", "author", "주말 등산", "같이 가요", "서울", models.CategorySports, 4, 0,
			"북한산", "입구", now, now, "http://img/1.jpg", "{http://img/1.jpg,http://img/2.jpg}",
		)
		mock.ExpectQuery(`SELECT \* FROM posts`).WithArgs("post-1").WillReturnRows(rows)

		post, err := repo.GetByID(ctx, "post-1")

		require.NoError(t, err)
		assert.Equal(t, "주말 등산", post.Title)
		assert.Equal(t, 4, post.Recruit)
		assert.Equal(t, []string{"http://img/1.jpg", "http://img/2.jpg"}, []string(post.ImageURLs))
		assert.Equal(t, post.ImageURLs[0], post.ImageURL)
	})

	t.Run("Пост не найден", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM posts`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		post, err := repo.GetByID(ctx, "missing")

		assert.Nil(t, post)
		assert.ErrorIs(t, err, models.ErrPostNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List(t *testing.T) {
	tests := []struct {
		name     string
		category string
		sort     models.PostSort
		query    string
		withArg  bool
	}{
		{name: "Все категории, сначала новые", category: models.CategoryAll, sort: models.SortLatest, query: "ORDER BY created_at DESC"},
		{name: "Пустая категория означает все", category: "", sort: models.SortOldest, query: "ORDER BY created_at ASC"},
		{name: "Фильтр по категории и сортировка по названию", category: models.CategoryStudy, sort: models.SortTitleAsc, query: "WHERE category = $1 ORDER BY title ASC", withArg: true},
		{name: "Сортировка по названию по убыванию", category: models.CategoryMusic, sort: models.SortTitleDesc, query: "ORDER BY title DESC", withArg: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)

			expectation := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if tt.withArg {
				expectation = expectation.WithArgs(tt.category)
			}
			expectation.WillReturnRows(sqlmock.NewRows([]string{"post_id", "title"}).AddRow("p1", "a"))

			posts, err := repo.List(context.Background(), tt.category, tt.sort)

			require.NoError(t, err)
			assert.Len(t, posts, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	lockQuery := regexp.QuoteMeta(`SELECT author_id FROM posts WHERE post_id = $1 FOR UPDATE`)
	countQuery := regexp.QuoteMeta(`SELECT COUNT(*) FROM proposers WHERE post_id = $1`)

	tests := []struct {
		name      string
		post      *models.Post
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "Автор изменяет свой пост",
			post: &models.Post{PostID: "post-1", AuthorID: "author", Title: "수정", Recruit: 4},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("author"))
				mock.ExpectQuery(countQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
				mock.ExpectExec(`UPDATE posts SET`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Чужой пост нельзя изменить",
			post: &models.Post{PostID: "post-1", AuthorID: "intruder", Recruit: 4},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("author"))
				mock.ExpectRollback()
			},
			wantErr: models.ErrForbidden,
		},
		{
			name: "Набор меньше числа участников",
			post: &models.Post{PostID: "post-1", AuthorID: "author", Recruit: 1},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("author"))
				mock.ExpectQuery(countQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
				mock.ExpectRollback()
			},
			wantErr: models.ErrRecruitBelowCount,
		},
		{
			name: "Пост не найден",
			post: &models.Post{PostID: "post-1", AuthorID: "author", Recruit: 4},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: models.ErrPostNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)
			tt.setupMock(mock)

			err := repo.Update(ctx, tt.post)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	lockQuery := regexp.QuoteMeta(`SELECT author_id FROM posts WHERE post_id = $1 FOR UPDATE`)

	tests := []struct {
		name      string
		authorID  string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name:     "Автор удаляет пост",
			authorID: "author",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("author"))
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE post_id = $1`)).
					WithArgs("post-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`GREATEST\(user_post_count - 1, 0\)`).
					WithArgs("author").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:     "Чужой пост",
			authorID: "intruder",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").
					WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow("author"))
				mock.ExpectRollback()
			},
			wantErr: models.ErrForbidden,
		},
		{
			name:     "Пост уже удален",
			authorID: "author",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(lockQuery).WithArgs("post-1").WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: models.ErrPostNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewPostRepository(db)
			tt.setupMock(mock)

			err := repo.Delete(ctx, "post-1", tt.authorID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestImageRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Первое изображение становится обложкой", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewImageRepository(db)

		mock.ExpectQuery(`array_append`).WithArgs("http://img/1.jpg", "post-1").
			WillReturnRows(sqlmock.NewRows([]string{"post_id", "image_url", "image_urls"}).
				AddRow("post-1", "http://img/1.jpg", "{http://img/1.jpg}"))

		post, err := repo.AddToPost(ctx, "post-1", "http://img/1.jpg")

		require.NoError(t, err)
		assert.Equal(t, "http://img/1.jpg", post.ImageURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Удаление неизвестного изображения", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewImageRepository(db)

		mock.ExpectQuery(`array_remove`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("post-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.RemoveFromPost(ctx, "post-1", "http://img/404.jpg")

		assert.ErrorIs(t, err, models.ErrImageNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Удаление изображения у удаленного поста", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewImageRepository(db)

		mock.ExpectQuery(`array_remove`).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("post-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.RemoveFromPost(ctx, "post-1", "http://img/1.jpg")

		assert.ErrorIs(t, err, models.ErrPostNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Список изображений поста", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewImageRepository(db)

		mock.ExpectQuery(`SELECT image_urls FROM posts`).WithArgs("post-1").
			WillReturnRows(sqlmock.NewRows([]string{"image_urls"}).AddRow("{a.jpg,b.jpg}"))

		urls, err := repo.GetByPostID(ctx, "post-1")

		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, urls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
