package service

import (
	"context"
	"damoyeo/internal/cache"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
	"damoyeo/internal/storage"
	"errors"
	"io"
	"log"
	"strings"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, req repository.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UploadProfileImage(ctx context.Context, userID string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	storage  storage.Storage
	profiles *cache.ProfileCache
	cfg      *config.Config
}

func NewUserService(userRepo repository.UserRepository, storage storage.Storage, profiles *cache.ProfileCache, cfg *config.Config) UserService {
	return &userService{
		userRepo: userRepo,
		storage:  storage,
		profiles: profiles,
		cfg:      cfg,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if user, ok := s.profiles.Get(ctx, userID); ok {
		return user, nil
	}

	user, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.User, error) {
		return s.userRepo.GetUserByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.profiles.Set(ctx, user); err != nil {
		log.Printf("Ошибка записи профиля %s в кэш: %v", userID, err)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, req repository.UpdateProfileRequest) (*models.User, error) {
	user, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.User, error) {
		// get user by id
		user, err := s.userRepo.GetUserByID(ctx, req.UserID)
		if err != nil {
			return nil, err
		}

		user.Name = strings.TrimSpace(req.Name)
		user.Nickname = strings.TrimSpace(req.Nickname)
		user.PhoneNum = strings.TrimSpace(req.PhoneNum)

		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			return nil, err
		}

		return user, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, req.UserID)
	return user, nil
}

// ChangePassword re-authenticates with the current password before storing
// the new one.
func (s *userService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		user, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := s.userRepo.VerifyPassword(ctx, user.Email, currentPassword); err != nil {
			return err
		}

		return s.userRepo.UpdatePassword(ctx, userID, newPassword)
	})
}

func (s *userService) UploadProfileImage(ctx context.Context, userID string, file io.Reader) (*models.User, error) {
	if s.storage == nil {
		return nil, models.ErrStorageMissing
	}

	img, err := storage.ProcessImage(file, storage.DefaultImageOptions(s.cfg.MaxUploadSize))
	if err != nil {
		return nil, err
	}

	user, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.User, error) {
		return s.userRepo.GetUserByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	previous := user.ProfileImage

	objectName, imageURL, err := s.storage.UploadImage(ctx, storage.PrefixProfiles, userID, img)
	if err != nil {
		return nil, err
	}

	err = boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.userRepo.UpdateProfileImage(ctx, userID, &imageURL)
	})
	if err != nil {
		s.removeObject(ctx, objectName)
		return nil, err
	}

	if previous != nil {
		if name, ok := s.storage.ObjectNameFromURL(*previous); ok {
			s.removeObject(ctx, name)
		}
	}

	s.invalidate(ctx, userID)
	user.ProfileImage = &imageURL
	return user, nil
}

func (s *userService) invalidate(ctx context.Context, userID string) {
	if err := s.profiles.Invalidate(ctx, userID); err != nil {
		log.Printf("Ошибка сброса профиля %s в кэше: %v", userID, err)
	}
}

// removeObject deletes a stored image; a failure leaves an orphan object
// and is only logged.
func (s *userService) removeObject(ctx context.Context, objectName string) {
	if err := s.storage.DeleteImage(ctx, objectName); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Не удалось удалить изображение %s: %v", objectName, err)
	}
}
