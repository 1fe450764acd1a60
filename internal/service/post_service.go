package service

import (
	"context"
	"damoyeo/internal/cache"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
	"damoyeo/internal/storage"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

type PostService interface {
	CreatePost(ctx context.Context, authorID string, req repository.CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, authorID, postID string, req repository.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, authorID, postID string) error
	ListPosts(ctx context.Context, category, sort string) ([]models.Post, error)
	GetPost(ctx context.Context, postID, viewerID string) (*models.PostDetail, error)
	MyPosts(ctx context.Context, userID string) ([]models.Post, error)
	ParticipatedPosts(ctx context.Context, userID string) ([]models.Post, error)
	AddImage(ctx context.Context, authorID, postID string, file io.Reader) (*models.Post, error)
	DeleteImage(ctx context.Context, authorID, postID, imageURL string) (*models.Post, error)
}

type postService struct {
	postRepo          repository.PostRepository
	imageRepo         repository.ImageRepository
	participationRepo repository.ParticipationRepository
	favoriteRepo      repository.FavoriteRepository
	users             UserService
	storage           storage.Storage
	profiles          *cache.ProfileCache
	cfg               *config.Config
}

func NewPostService(rep *repository.Repository, users UserService, storage storage.Storage,
	profiles *cache.ProfileCache, cfg *config.Config) PostService {
	return &postService{
		postRepo:          rep.Post,
		imageRepo:         rep.Image,
		participationRepo: rep.Participation,
		favoriteRepo:      rep.Favorite,
		users:             users,
		storage:           storage,
		profiles:          profiles,
		cfg:               cfg,
	}
}

func validatePost(req repository.CreatePostRequest) error {
	if !models.IsValidCategory(req.Category) {
		return fmt.Errorf("%s: %w", req.Category, models.ErrInvalidCategory)
	}
	if req.Recruit < 1 {
		return models.ErrInvalidRecruit
	}
	if req.Cost < 0 {
		return models.ErrInvalidCost
	}
	return nil
}

func applyPostRequest(post *models.Post, req repository.CreatePostRequest) {
	post.Title = strings.TrimSpace(req.Title)
	post.Content = strings.TrimSpace(req.Content)
	post.Tag = strings.TrimSpace(req.Tag)
	post.Category = req.Category
	post.Recruit = req.Recruit
	post.Cost = req.Cost
	post.Address = strings.TrimSpace(req.Address)
	post.DetailAddress = strings.TrimSpace(req.DetailAddress)
	post.MeetingTime = req.MeetingTime
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req repository.CreatePostRequest) (*models.Post, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: authorID}
	applyPostRequest(post, req)

	err := boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.postRepo.Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	// post count changed
	s.invalidateProfile(ctx, authorID)

	return post, nil
}

// UpdatePost is last-write-wins; only the author may edit, and recruit may
// not drop below the current participant count.
func (s *postService) UpdatePost(ctx context.Context, authorID, postID string, req repository.UpdatePostRequest) (*models.Post, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.Post, error) {
		post, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.AuthorID != authorID {
			return nil, models.ErrForbidden
		}

		// the repository repeats this check under the row lock
		count, err := s.participationRepo.Count(ctx, postID)
		if err != nil {
			return nil, err
		}
		if req.Recruit < count {
			return nil, fmt.Errorf("участников %d, набор %d: %w", count, req.Recruit, models.ErrRecruitBelowCount)
		}

		applyPostRequest(post, req)

		if err := s.postRepo.Update(ctx, post); err != nil {
			return nil, err
		}

		return post, nil
	})
}

func (s *postService) DeletePost(ctx context.Context, authorID, postID string) error {
	post, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.Post, error) {
		post, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		if post.AuthorID != authorID {
			return nil, models.ErrForbidden
		}

		return post, s.postRepo.Delete(ctx, postID, authorID)
	})
	if err != nil {
		return err
	}

	for _, imageURL := range post.ImageURLs {
		s.removeStoredImage(ctx, imageURL)
	}
	s.invalidateProfile(ctx, authorID)

	return nil
}

func (s *postService) ListPosts(ctx context.Context, category, sort string) ([]models.Post, error) {
	if category != "" && category != models.CategoryAll && !models.IsValidCategory(category) {
		return nil, fmt.Errorf("%s: %w", category, models.ErrInvalidCategory)
	}

	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Post, error) {
		return s.postRepo.List(ctx, category, models.ParsePostSort(sort))
	})
}

// GetPost assembles the detail screen data: the post, the viewer's
// participation and favorite state and the author profile.
func (s *postService) GetPost(ctx context.Context, postID, viewerID string) (*models.PostDetail, error) {
	detail, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.PostDetail, error) {
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
		favoriteCount, err := s.favoriteRepo.Count(ctx, postID)
		if err != nil {
			return nil, err
		}
		favorited, err := s.favoriteRepo.IsFavorited(ctx, postID, viewerID)
		if err != nil {
			return nil, err
		}

		return &models.PostDetail{
			Post:          post,
			Participation: models.NewParticipationStatus(count, post.Recruit, joined),
			FavoriteCount: favoriteCount,
			Favorited:     favorited,
			IsAuthor:      post.AuthorID == viewerID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	post := detail.Post

	author, err := s.users.GetProfile(ctx, post.AuthorID)
	if err != nil {
		log.Printf("Автор %s поста %s недоступен: %v", post.AuthorID, postID, err)
	} else {
		detail.Author = author
	}

	return detail, nil
}

func (s *postService) MyPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Post, error) {
		return s.postRepo.GetByAuthorID(ctx, userID)
	})
}

func (s *postService) ParticipatedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Post, error) {
		return s.postRepo.GetParticipatedBy(ctx, userID)
	})
}

func (s *postService) ownPost(ctx context.Context, authorID, postID string) error {
	post, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.Post, error) {
		return s.postRepo.GetByID(ctx, postID)
	})
	if err != nil {
		return err
	}
	if post.AuthorID != authorID {
		return models.ErrForbidden
	}
	return nil
}

func (s *postService) AddImage(ctx context.Context, authorID, postID string, file io.Reader) (*models.Post, error) {
	if s.storage == nil {
		return nil, models.ErrStorageMissing
	}

	if err := s.ownPost(ctx, authorID, postID); err != nil {
		return nil, err
	}

	img, err := storage.ProcessImage(file, storage.DefaultImageOptions(s.cfg.MaxUploadSize))
	if err != nil {
		return nil, err
	}

	objectName, imageURL, err := s.storage.UploadImage(ctx, storage.PrefixPosts, postID, img)
	if err != nil {
		return nil, err
	}

	post, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.Post, error) {
		return s.imageRepo.AddToPost(ctx, postID, imageURL)
	})
	if err != nil {
		if delErr := s.storage.DeleteImage(ctx, objectName); delErr != nil {
			log.Printf("Не удалось удалить изображение %s: %v", objectName, delErr)
		}
		return nil, err
	}

	return post, nil
}

func (s *postService) DeleteImage(ctx context.Context, authorID, postID, imageURL string) (*models.Post, error) {
	if err := s.ownPost(ctx, authorID, postID); err != nil {
		return nil, err
	}

	post, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.Post, error) {
		return s.imageRepo.RemoveFromPost(ctx, postID, imageURL)
	})
	if err != nil {
		return nil, err
	}

	s.removeStoredImage(ctx, imageURL)

	return post, nil
}

func (s *postService) removeStoredImage(ctx context.Context, imageURL string) {
	if s.storage == nil {
		return
	}

	objectName, ok := s.storage.ObjectNameFromURL(imageURL)
	if !ok {
		return
	}

	if err := s.storage.DeleteImage(ctx, objectName); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Не удалось удалить изображение %s: %v", objectName, err)
	}
}

func (s *postService) invalidateProfile(ctx context.Context, userID string) {
	if err := s.profiles.Invalidate(ctx, userID); err != nil {
		log.Printf("Ошибка сброса профиля %s в кэше: %v", userID, err)
	}
}
