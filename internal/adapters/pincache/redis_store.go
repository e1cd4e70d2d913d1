package pincache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

const keyPrefix = "treb-vote:pin:"

// RedisStore shares the pin cache between machines
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to a redis:// URL
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid pin cache redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func redisKey(key string) string {
	return keyPrefix + key
}

// Get returns the content hash pinned for key
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	hash, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read pin cache: %w", err)
	}
	return hash, true, nil
}

// Put records hash for key without expiry
func (s *RedisStore) Put(ctx context.Context, key, hash string) error {
	if err := s.client.Set(ctx, redisKey(key), hash, 0).Err(); err != nil {
		return fmt.Errorf("failed to write pin cache: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewPinCache picks the redis store when a URL is configured and the file
// store otherwise.
func NewPinCache(cfg *config.RuntimeConfig, log *slog.Logger) (usecase.PinCache, error) {
	if cfg.PinCacheRedisURL == "" {
		return NewFileStore(cfg, log), nil
	}
	store, err := NewRedisStore(cfg.PinCacheRedisURL)
	if err != nil {
		return nil, err
	}
	log.Debug("using redis pin cache")
	return store, nil
}

var (
	_ usecase.PinCache = (*FileStore)(nil)
	_ usecase.PinCache = (*RedisStore)(nil)
)
