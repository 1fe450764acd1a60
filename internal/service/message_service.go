package service

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/realtime"
	"damoyeo/internal/repository"
	"log"
	"strings"
)

type MessageService interface {
	Send(ctx context.Context, chatID, senderID, body string) (*models.Message, error)
	History(ctx context.Context, chatID, userID string) ([]models.Message, error)
	Subscribe(ctx context.Context, chatID, userID string) (<-chan []models.Message, error)
	MarkAllReadFrom(ctx context.Context, chatID, senderID string) (int64, error)
	MarkRead(ctx context.Context, chatID, viewerID string) (int64, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	users       UserService
	broker      *realtime.Broker
	cfg         *config.Config
}

func NewMessageService(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, users UserService,
	broker *realtime.Broker, cfg *config.Config) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		users:       users,
		broker:      broker,
		cfg:         cfg,
	}
}

// Send stores a message from a room member and moves the room's last
// message preview to it.
func (s *messageService) Send(ctx context.Context, chatID, senderID, body string) (*models.Message, error) {
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, models.ErrEmptyMessage
	}

	if _, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.ChatRoom, error) {
		return memberRoom(ctx, s.chatRepo, chatID, senderID)
	}); err != nil {
		return nil, err
	}

	senderName := "Unknown"
	if profile, err := s.users.GetProfile(ctx, senderID); err != nil {
		log.Printf("Профиль отправителя %s недоступен: %v", senderID, err)
	} else {
		senderName = profile.DisplayName()
	}

	message := &models.Message{
		ChatID:     chatID,
		SenderID:   senderID,
		SenderName: senderName,
		Message:    text,
	}

	err := boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.messageRepo.Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	// the message is stored; a stale preview is not worth failing the send
	err = boundedErr(ctx, s.cfg.StoreTimeout, func(ctx context.Context) error {
		return s.chatRepo.UpdateLastMessage(ctx, chatID, text, message.Timestamp)
	})
	if err != nil {
		log.Printf("Ошибка обновления последнего сообщения чата %s: %v", chatID, err)
	}

	return message, nil
}

func (s *messageService) History(ctx context.Context, chatID, userID string) ([]models.Message, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Message, error) {
		if _, err := memberRoom(ctx, s.chatRepo, chatID, userID); err != nil {
			return nil, err
		}
		return s.messageRepo.ListByChat(ctx, chatID)
	})
}

// Subscribe streams the full ordered message list of the room after every
// change. The channel is closed once ctx is done or the user no longer
// belongs to the room.
func (s *messageService) Subscribe(ctx context.Context, chatID, userID string) (<-chan []models.Message, error) {
	if _, err := bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (*models.ChatRoom, error) {
		return memberRoom(ctx, s.chatRepo, chatID, userID)
	}); err != nil {
		return nil, err
	}

	sub := s.broker.Subscribe(realtime.MessagesTopic(chatID))

	return watch(ctx, sub, s.cfg.StoreTimeout, func(ctx context.Context) ([]models.Message, error) {
		if _, err := memberRoom(ctx, s.chatRepo, chatID, userID); err != nil {
			return nil, err
		}
		return s.messageRepo.ListByChat(ctx, chatID)
	}), nil
}

func (s *messageService) MarkAllReadFrom(ctx context.Context, chatID, senderID string) (int64, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (int64, error) {
		return s.messageRepo.MarkAllReadFrom(ctx, chatID, senderID)
	})
}

// MarkRead marks everything in the room the viewer did not send as read.
// Messages of a member who already exited are covered too.
func (s *messageService) MarkRead(ctx context.Context, chatID, viewerID string) (int64, error) {
	return bounded(ctx, s.cfg.StoreTimeout, func(ctx context.Context) (int64, error) {
		if _, err := memberRoom(ctx, s.chatRepo, chatID, viewerID); err != nil {
			return 0, err
		}

		return s.messageRepo.MarkAllReadFor(ctx, chatID, viewerID)
	})
}
