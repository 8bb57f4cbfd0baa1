package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "verinest:"

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL expires abandoned progress; zero keeps it forever.
	TTL time.Duration
}

// Redis stores blobs as plain string values.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &Redis{rdb: rdb, ttl: opts.TTL}, nil
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	blob, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return blob, true, nil
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, blob, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write state %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear state %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
