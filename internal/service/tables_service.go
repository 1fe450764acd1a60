package service

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/repository"
)

type TablesService interface {
	GetCountTablesBD(ctx context.Context) (int, error)
	MissingTables(ctx context.Context) ([]string, error)
}

type tablesService struct {
	tablesRepo repository.TablesRepository
	cfg        *config.Config
}

func NewTablesService(tablesRepo repository.TablesRepository, cfg *config.Config) TablesService {
	return &tablesService{tablesRepo: tablesRepo, cfg: cfg}
}

func (t *tablesService) GetCountTablesBD(ctx context.Context) (int, error) {
	return bounded(ctx, t.cfg.StoreTimeout, func(ctx context.Context) (int, error) {
		return t.tablesRepo.CountTablesDB(ctx)
	})
}

// MissingTables lists the collection tables the migration has not created.
func (t *tablesService) MissingTables(ctx context.Context) ([]string, error) {
	existing, err := bounded(ctx, t.cfg.StoreTimeout, func(ctx context.Context) ([]string, error) {
		return t.tablesRepo.ExistingTables(ctx, repository.CollectionTables)
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		found[name] = struct{}{}
	}

	missing := []string{}
	for _, name := range repository.CollectionTables {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}

	return missing, nil
}
