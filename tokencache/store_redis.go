package tokencache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tokencache:"

// RedisStore keeps token cache blobs in Redis. Entries never expire
// server-side; validity is governed by the refresh token itself.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the provided Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, userKey string, blob []byte) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}
	return s.client.Set(ctx, redisKeyPrefix+userKey, blob, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, userKey string) ([]byte, error) {
	if userKey == "" {
		return nil, errors.New("userKey is required")
	}

	blob, err := s.client.Get(ctx, redisKeyPrefix+userKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

func (s *RedisStore) Delete(ctx context.Context, userKey string) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}
	return s.client.Del(ctx, redisKeyPrefix+userKey).Err()
}
