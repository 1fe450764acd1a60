package service

import (
	"context"
	"damoyeo/internal/cache"
	"damoyeo/internal/config"
	"damoyeo/internal/models"
	"damoyeo/internal/realtime"
	"damoyeo/internal/repository"
	"damoyeo/internal/storage"
	"errors"
	"fmt"
	"log"
	"time"
)

type Service struct {
	Auth          AuthService
	User          UserService
	Post          PostService
	Participation ParticipationService
	Favorite      FavoriteService
	Chat          ChatService
	Message       MessageService
	Tables        TablesService
}

// Deps are the optional collaborators of the services. Nil storage disables
// image uploads, nil caches disable caching and token revocation.
type Deps struct {
	Storage   storage.Storage
	Broker    *realtime.Broker
	Profiles  *cache.ProfileCache
	Blacklist *cache.TokenBlacklist
}

func NewService(rep *repository.Repository, cfg *config.Config, deps Deps) *Service {
	broker := deps.Broker
	if broker == nil {
		broker = realtime.NewBroker()
	}

	users := NewUserService(rep.User, deps.Storage, deps.Profiles, cfg)

	return &Service{
		Auth:          NewAuthService(rep.User, deps.Blacklist, cfg),
		User:          users,
		Post:          NewPostService(rep, users, deps.Storage, deps.Profiles, cfg),
		Participation: NewParticipationService(rep.Participation, rep.Post, cfg),
		Favorite:      NewFavoriteService(rep.Favorite, rep.Post, cfg),
		Chat:          NewChatService(rep.Chat, rep.User, broker, cfg),
		Message:       NewMessageService(rep.Message, rep.Chat, users, broker, cfg),
		Tables:        NewTablesService(rep.Tables, cfg),
	}
}

// bounded runs fn under the store timeout. An expired deadline is reported
// as models.ErrStoreTimeout.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %w", models.ErrStoreTimeout, err)
	}

	return result, err
}

func boundedErr(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	_, err := bounded(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// deliverLatest hands v to the single reader of out, replacing a snapshot
// the reader has not picked up yet.
func deliverLatest[T any](ctx context.Context, out chan T, v T) {
	select {
	case out <- v:
		return
	default:
	}

	select {
	case <-out:
	default:
	}

	select {
	case out <- v:
	case <-ctx.Done():
	}
}

// watch loads a snapshot right away and again after every signal of sub,
// until ctx is done or the room is gone for the subscriber. The returned
// channel is closed afterwards.
func watch[T any](ctx context.Context, sub *realtime.Subscription, timeout time.Duration, load func(ctx context.Context) (T, error)) <-chan T {
	out := make(chan T, 1)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			snapshot, err := bounded(ctx, timeout, load)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, models.ErrRoomNotFound) || errors.Is(err, models.ErrNotRoomMember) {
					return
				}
				log.Printf("Ошибка обновления подписки %s: %v", sub.Topic(), err)
			} else {
				deliverLatest(ctx, out, snapshot)
			}

			select {
			case <-ctx.Done():
				return
			case <-sub.C:
			}
		}
	}()

	return out
}
