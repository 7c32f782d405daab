package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKV хранилище поверх redis; включается конфигом REDIS_ADDR,
// когда каталог данных нужно разделить между инстансами
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(addr string) *RedisKV {
	return &RedisKV{client: redis.NewClient(&redis.Options{Addr: addr})}
}

var _ KV = (*RedisKV)(nil)

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
