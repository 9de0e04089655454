package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wms/backend/internal/infrastructure/config"
)

// RedisUIStateStore implements UIStateStore using Redis, letting multiple
// backend instances serve the same client state.
type RedisUIStateStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisUIStateStore creates a new Redis-backed UI state store
func NewRedisUIStateStore(cfg config.RedisConfig) (*RedisUIStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisUIStateStore{
		client:    client,
		keyPrefix: "wms:ui_state:",
	}, nil
}

// NewRedisUIStateStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisUIStateStoreWithClient(client *redis.Client, keyPrefix string) *RedisUIStateStore {
	if keyPrefix == "" {
		keyPrefix = "wms:ui_state:"
	}
	return &RedisUIStateStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the stored value for a key, or empty string when absent
func (s *RedisUIStateStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read ui state: %w", err)
	}
	return value, nil
}

// Set stores a value under a key with a TTL. A zero TTL means no expiration.
func (s *RedisUIStateStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store ui state: %w", err)
	}
	return nil
}

// Delete removes a key
func (s *RedisUIStateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete ui state: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisUIStateStore) Close() error {
	return s.client.Close()
}

var _ UIStateStore = (*RedisUIStateStore)(nil)
