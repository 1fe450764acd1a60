package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CollectionTables are the tables that back the app collections.
var CollectionTables = []string{"users", "posts", "proposers", "favorite", "chats", "messages"}

type tablesRepository struct {
	db *sqlx.DB
}

func NewTablesRepository(db *sqlx.DB) TablesRepository {
	return &tablesRepository{db: db}
}

func (r *tablesRepository) CountTablesDB(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `
			SELECT COUNT(*)
			FROM information_schema.tables
			WHERE table_schema = 'public'
		`)

	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте таблиц базы данных: %w", err)
	}

	return count, nil
}

func (r *tablesRepository) ExistingTables(ctx context.Context, names []string) ([]string, error) {
	tables := []string{}

	err := r.db.SelectContext(ctx, &tables, `
			SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = ANY($1)
			ORDER BY table_name
		`, pq.Array(names))

	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка таблиц: %w", err)
	}

	return tables, nil
}
