package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BastienLeGuellec/PARROT-rating/internal/pkg/config"
)

var client *redis.Client

// Init initializes the Redis client
func Init(cfg *config.Config) error {
	client = redis.NewClient(&redis.Options{
		Addr: cfg.GetRedisAddr(),
		DB:   cfg.RedisService.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	zap.L().Info("Redis connected successfully",
		zap.String("addr", cfg.GetRedisAddr()))

	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// Fence serializes rater sessions across processes: at most one live session
// per username while the key is held. Keys expire so a crashed process never
// wedges its users permanently.
type Fence struct {
	TTL time.Duration
}

func sessionKey(username string) string {
	return fmt.Sprintf("metarate:session:%s", username)
}

// Acquire attempts to take the session slot for username. Returns false when
// another process already holds it.
func (f *Fence) Acquire(ctx context.Context, username string) (bool, error) {
	if client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}
	return client.SetNX(ctx, sessionKey(username), 1, f.TTL).Result()
}

// Refresh extends the slot held for username.
func (f *Fence) Refresh(ctx context.Context, username string) error {
	if client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return client.Expire(ctx, sessionKey(username), f.TTL).Err()
}

// Release frees the slot held for username.
func (f *Fence) Release(ctx context.Context, username string) error {
	if client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return client.Del(ctx, sessionKey(username)).Err()
}
