package app

import (
	"context"
	"damoyeo/internal/cache"
	"damoyeo/internal/config"
	"damoyeo/internal/database"
	"damoyeo/internal/realtime"
	"damoyeo/internal/repository"
	"damoyeo/internal/service"
	"damoyeo/internal/storage"
	"log"

	"github.com/lib/pq"
)

type Application struct {
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Broker   *realtime.Broker
	Listener *pq.Listener
	Redis    *cache.RedisCache
}

// App connects the store, the change feed and the optional Redis and MinIO
// backends, then wires the services on top of them.
func App(ctx context.Context, cfg *config.Config) *Application {
	// connection DB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}

	// change feed for the realtime subscriptions
	listener, err := database.NewListener(cfg, database.ChannelChatMessages, database.ChannelChatRooms)
	if err != nil {
		log.Fatalf("Не удалось подписаться на уведомления БД: %v", err)
	}

	broker := realtime.NewBroker()
	go broker.Run(ctx, listener.Notify)

	deps := service.Deps{Broker: broker}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("Внимание: Redis недоступен, кэш профилей отключен: %v", err)
			redisCache.Close()
			redisCache = nil
		} else {
			deps.Profiles = cache.NewProfileCache(redisCache, cfg.Redis.ProfileTTL)
			deps.Blacklist = cache.NewTokenBlacklist(redisCache)
		}
	}

	// connection MinIO
	minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		log.Printf("Внимание: MinIO недоступен, загрузка изображений отключена: %v", err)
	} else {
		deps.Storage = minioClient
	}

	// enabling dependencies
	repo := repository.NewRepository(db.DB)
	services := service.NewService(repo, cfg, deps)

	return &Application{
		DB:       db,
		Repo:     repo,
		Services: services,
		Broker:   broker,
		Listener: listener,
		Redis:    redisCache,
	}
}

func (a *Application) Close() {
	if err := a.Listener.Close(); err != nil {
		log.Printf("Ошибка закрытия LISTEN соединения: %v", err)
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("Ошибка закрытия Redis: %v", err)
		}
	}
	if err := a.DB.CloseDB(); err != nil {
		log.Printf("Ошибка закрытия БД: %v", err)
	}
}
