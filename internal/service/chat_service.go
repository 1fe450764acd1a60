package service

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/realtime"
	"damoyeo/internal/repository"
	"fmt"
)

type ChatService interface {
	FindOrCreateRoom(ctx context.Context, userID, otherUserID string) (string, error)
	ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error)
	SetPinned(ctx context.Context, chatID, userID string, pinned bool) error
	Exit(ctx context.Context, chatID, userID string) (bool, error)
	SubscribeRooms(ctx context.Context, userID string) <-chan []models.ChatRoom
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	broker   *realtime.Broker
	cfg      *config.Config
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, broker *realtime.Broker,
	cfg *config.Config) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		broker:   broker,
		cfg:      cfg,
	}
}

func (s *chatService) FindOrCreateRoom(ctx context.Context, userID, otherUserID string) (string, error) {
	if userID == otherUserID {
		return "", models.ErrSelfChat
	}

	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (string, error) {
		if _, err := s.userRepo.GetUserByID(ctx, otherUserID); err != nil {
			return "", err
		}
		return s.chatRepo.FindOrCreateRoom(ctx, userID, otherUserID)
	})
}

// ListRooms returns the rooms of the user, pinned first, then most recent.
func (s *chatService) ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	rooms, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.ChatRoom, error) {
		return s.chatRepo.ListForUser(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	models.SortChatRooms(rooms)
	return rooms, nil
}

// SetPinned flips the room-wide pinned flag. Both members see the change.
func (s *chatService) SetPinned(ctx context.Context, chatID, userID string, pinned bool) error {
	return boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		if _, err := memberRoom(ctx, s.chatRepo, chatID, userID); err != nil {
			return err
		}
		return s.chatRepo.SetPinned(ctx, chatID, pinned)
	})
}

// Exit removes the user from the room; the room is deleted with its
// messages once both users have left.
func (s *chatService) Exit(ctx context.Context, chatID, userID string) (bool, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (bool, error) {
		return s.chatRepo.Exit(ctx, chatID, userID)
	})
}

// SubscribeRooms streams the full sorted room list of the user: once right
// away and again after every change to a room the user is or was in.
func (s *chatService) SubscribeRooms(ctx context.Context, userID string) <-chan []models.ChatRoom {
	sub := s.broker.Subscribe(realtime.RoomsTopic(userID))

	return watch(ctx, sub, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.ChatRoom, error) {
		rooms, err := s.chatRepo.ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		models.SortChatRooms(rooms)
		return rooms, nil
	})
}

func memberRoom(ctx context.Context, chatRepo repository.ChatRepository, chatID, userID string) (*models.ChatRoom, error) {
	room, err := chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !room.HasUser(userID) {
		return nil, fmt.Errorf("чат %s: %w", chatID, models.ErrNotRoomMember)
	}
	return room, nil
}
