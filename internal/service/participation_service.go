package service

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
)

type ParticipationService interface {
	Join(ctx context.Context, postID, userID string) (*models.ParticipationStatus, error)
	Leave(ctx context.Context, postID, userID string) (*models.ParticipationStatus, error)
	Count(ctx context.Context, postID string) (int, error)
	IsJoined(ctx context.Context, postID, userID string) (bool, error)
	Status(ctx context.Context, postID, viewerID string) (*models.ParticipationStatus, error)
	Roster(ctx context.Context, postID string) ([]models.Participant, error)
}

type participationService struct {
	participationRepo repository.ParticipationRepository
	postRepo          repository.PostRepository
	cfg               *config.Config
}

func NewParticipationService(participationRepo repository.ParticipationRepository, postRepo repository.PostRepository,
	cfg *config.Config) ParticipationService {
	return &participationService{
		participationRepo: participationRepo,
		postRepo:          postRepo,
		cfg:               cfg,
	}
}

// Join adds the user to the roster and returns the resulting status.
func (s *participationService) Join(ctx context.Context, postID, userID string) (*models.ParticipationStatus, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.ParticipationStatus, error) {
		if err := s.participationRepo.Join(ctx, postID, userID); err != nil {
			return nil, err
		}
		return s.status(ctx, postID, userID)
	})
}

func (s *participationService) Leave(ctx context.Context, postID, userID string) (*models.ParticipationStatus, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.ParticipationStatus, error) {
		post, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.AuthorID == userID {
			return nil, models.ErrAuthorCannotLeave
		}

		if err := s.participationRepo.Leave(ctx, postID, userID); err != nil {
			return nil, err
		}
		return s.status(ctx, postID, userID)
	})
}

func (s *participationService) Count(ctx context.Context, postID string) (int, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (int, error) {
		return s.participationRepo.Count(ctx, postID)
	})
}

func (s *participationService) IsJoined(ctx context.Context, postID, userID string) (bool, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (bool, error) {
		return s.participationRepo.IsJoined(ctx, postID, userID)
	})
}

func (s *participationService) Status(ctx context.Context, postID, viewerID string) (*models.ParticipationStatus, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.ParticipationStatus, error) {
		return s.status(ctx, postID, viewerID)
	})
}

func (s *participationService) status(ctx context.Context, postID, viewerID string) (*models.ParticipationStatus, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	count, err := s.participationRepo.Count(ctx, postID)
	if err != nil {
		return nil, err
	}

	joined, err := s.participationRepo.IsJoined(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	status := models.NewParticipationStatus(count, post.Recruit, joined)
	return &status, nil
}

func (s *participationService) Roster(ctx context.Context, postID string) ([]models.Participant, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Participant, error) {
		if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
			return nil, err
		}
		return s.participationRepo.ListByPost(ctx, postID)
	})
}
