package share

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps shares as plain string keys with a TTL.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(id string) string {
	return r.prefix + id
}

func (r *RedisBackend) Put(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, r.key(id), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrIDTaken
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return data, err
}
