package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dashgate/internal/sentinel"
)

var deleteIfValueScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is the shared Store used when several replicas serve the same browsers.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis namespaces every key under prefix (e.g. "dashgate:").
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return ok, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("key %q: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return b, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := deleteIfValueScript.Run(ctx, r.client, []string{r.key(key)}, value).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete %q: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return n == 1, nil
}
