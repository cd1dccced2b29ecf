package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a go-redis client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis returns a Redis store for the given address. The connection is
// lazy; call WaitReady at startup to verify reachability.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// WaitReady pings the store with capped exponential backoff until it answers
// or the retry budget is spent. Intended for process startup only; runtime
// failures are handled by each component's degrade policy instead.
func WaitReady(ctx context.Context, s Store) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 3 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.Ping(ctx)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(10))
	if err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result()
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.rdb.Expire(ctx, key, ttl).Err()
}

func (r *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// go-redis passes through the sentinel replies: -2 missing key, -1 no expiry.
	switch d {
	case -2:
		return 0, ErrNotFound
	case -1:
		return 0, nil
	}
	return d, nil
}

func (r *Redis) SAdd(ctx context.Context, key, member string) error {
	return r.rdb.SAdd(ctx, key, member).Err()
}

func (r *Redis) SRem(ctx context.Context, key, member string) error {
	return r.rdb.SRem(ctx, key, member).Err()
}

func (r *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.rdb.SMembers(ctx, key).Result()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
