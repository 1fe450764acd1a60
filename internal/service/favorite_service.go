package service

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
)

type FavoriteService interface {
	Toggle(ctx context.Context, postID, userID string) (*models.FavoriteStatus, error)
	IsFavorited(ctx context.Context, postID, userID string) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
	Status(ctx context.Context, postID, userID string) (*models.FavoriteStatus, error)
	ListFavorites(ctx context.Context, userID string) ([]models.Post, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	postRepo     repository.PostRepository
	cfg          *config.Config
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, postRepo repository.PostRepository, cfg *config.Config) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		postRepo:     postRepo,
		cfg:          cfg,
	}
}

func (s *favoriteService) Toggle(ctx context.Context, postID, userID string) (*models.FavoriteStatus, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.FavoriteStatus, error) {
		favorited, err := s.favoriteRepo.Toggle(ctx, postID, userID)
		if err != nil {
			return nil, err
		}

		count, err := s.favoriteRepo.Count(ctx, postID)
		if err != nil {
			return nil, err
		}

		return &models.FavoriteStatus{Favorited: favorited, Count: count}, nil
	})
}

func (s *favoriteService) IsFavorited(ctx context.Context, postID, userID string) (bool, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (bool, error) {
		return s.favoriteRepo.IsFavorited(ctx, postID, userID)
	})
}

func (s *favoriteService) Count(ctx context.Context, postID string) (int, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (int, error) {
		return s.favoriteRepo.Count(ctx, postID)
	})
}

func (s *favoriteService) Status(ctx context.Context, postID, userID string) (*models.FavoriteStatus, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.FavoriteStatus, error) {
		if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
			return nil, err
		}

		favorited, err := s.favoriteRepo.IsFavorited(ctx, postID, userID)
		if err != nil {
			return nil, err
		}

		count, err := s.favoriteRepo.Count(ctx, postID)
		if err != nil {
			return nil, err
		}

		return &models.FavoriteStatus{Favorited: favorited, Count: count}, nil
	})
}

func (s *favoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Post, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Post, error) {
		return s.postRepo.GetFavoritedBy(ctx, userID)
	})
}
