package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gw-labs/gw-messenger/internal/logger"
)

// TokenCacheRepository caches auth tokens by user id using Redis. Tokens are
// assigned once at registration and never change, so entries only expire to
// bound memory, never to stay fresh.
type TokenCacheRepository struct {
	client *redis.Client
	exp    time.Duration // expiration for cached tokens
}

// NewTokenCacheRepository creates a new repository instance with optional TTL
func NewTokenCacheRepository(client *redis.Client, expiration time.Duration) *TokenCacheRepository {
	return &TokenCacheRepository{
		client: client,
		exp:    expiration,
	}
}

// Get fetches the cached auth token for a user id.
func (r *TokenCacheRepository) Get(ctx context.Context, userID int64) (string, error) {
	key := fmt.Sprintf("auth_token:%d", userID)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Infow(
			"key", key,
			"result", val,
			"error", err,
		)
		if err == redis.Nil {
			return "", fmt.Errorf("auth token not found in cache for user %d", userID)
		}
		return "", err
	}

	logger.Log.Infow(
		"key", key,
		"result", val,
		"error", nil,
	)

	return val, nil
}

// Set caches the auth token for a user id with expiration.
func (r *TokenCacheRepository) Set(ctx context.Context, userID int64, authToken string) error {
	key := fmt.Sprintf("auth_token:%d", userID)
	err := r.client.Set(ctx, key, authToken, r.exp).Err()

	logger.Log.Infow(
		"key", key,
		"result", "ok",
		"error", err,
	)

	return err
}
