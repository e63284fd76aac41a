package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisKV keeps the session under a key prefix so several kiosks can
// share one redis instance.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates and validates a go-redis client connection.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (r *RedisKV) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	vals, err := r.rdb.MGet(ctx, r.keys(keys)...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (r *RedisKV) SetAll(ctx context.Context, values map[string]string) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range values {
			p.Set(ctx, r.prefix+k, v, 0)
		}
		return nil
	})
	return err
}

func (r *RedisKV) DeleteAll(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, r.keys(keys)...).Err()
}

func (r *RedisKV) keys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.prefix + k
	}
	return out
}
