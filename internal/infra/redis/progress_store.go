package redis

import (
	"context"
	"errors"
	"time"

	"ai-ops-scorecard/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps progress records as plain string keys.
// The TTL only garbage-collects abandoned records; expiry is still judged from savedAt.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrProgressNotFound
	}
	return value, err
}

func (s *ProgressStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *ProgressStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
