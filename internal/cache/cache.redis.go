package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const redisKeyPrefix = "w4b:dashboard:"

// RedisStore keeps entries in Redis so several dashboard instances share one cache
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) error {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	if err := decode(data, dst); err != nil {
		return fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache entries %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting cache entries %s: %w", prefix, err)
	}
	nuts.L.Infof("[RedisStore] Deleted %d entries with prefix %s", len(keys), prefix)
	return nil
}
