package cache

import (
	"context"
	"time"
)

// TokenBlacklist remembers signed-out access tokens by their jti until they
// would have expired anyway. A nil *TokenBlacklist revokes nothing.
type TokenBlacklist struct {
	redis *RedisCache
}

func NewTokenBlacklist(redis *RedisCache) *TokenBlacklist {
	return &TokenBlacklist{redis: redis}
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

func (tb *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tb == nil || tb.redis == nil || tokenID == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return tb.redis.Set(ctx, revokedKey(tokenID), []byte("1"), ttl)
}

func (tb *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tb == nil || tb.redis == nil || tokenID == "" {
		return false, nil
	}
	return tb.redis.Exists(ctx, revokedKey(tokenID))
}
