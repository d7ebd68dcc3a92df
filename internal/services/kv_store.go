package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyValueStore is the subset of the traced Redis client the services use.
// *redisclient.Client satisfies it.
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}
