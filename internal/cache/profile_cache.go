package cache

import (
	"context"
	"damoyeo/internal/models"
	"log"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const DefaultProfileTTL = 10 * time.Minute

// ProfileCache keeps user profiles msgpack-encoded in Redis. A nil
// *ProfileCache is valid and caches nothing.
type ProfileCache struct {
	redis *RedisCache
	ttl   time.Duration
}

func NewProfileCache(redis *RedisCache, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{redis: redis, ttl: ttl}
}

func profileKey(userID string) string {
	return "profile:" + userID
}

func (pc *ProfileCache) Get(ctx context.Context, userID string) (*models.User, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}

	data, err := pc.redis.Get(ctx, profileKey(userID))
	if err != nil {
		log.Printf("Ошибка чтения профиля %s из кэша: %v", userID, err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	user, err := decodeProfile(data)
	if err != nil {
		return nil, false
	}

	return user, true
}

func (pc *ProfileCache) Set(ctx context.Context, user *models.User) error {
	if pc == nil || pc.redis == nil || user == nil {
		return nil
	}

	data, err := encodeProfile(user)
	if err != nil {
		return err
	}

	return pc.redis.Set(ctx, profileKey(user.UserID), data, pc.ttl)
}

func (pc *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Delete(ctx, profileKey(userID))
}

// encodeProfile drops the password hash and refresh token through the
// msgpack:"-" tags on models.User.
func encodeProfile(user *models.User) ([]byte, error) {
	return msgpack.Marshal(user)
}

func decodeProfile(data []byte) (*models.User, error) {
	var user models.User
	if err := msgpack.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
