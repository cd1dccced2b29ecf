// Package store defines the expiring key/value store the gateway shares
// state through, with a Redis implementation and an in-memory fake for tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("store: not found")

// Store is the minimal expiring key/value surface the gateway needs:
// string values with TTL, atomic counters, and sets. Every call takes a
// context and may block on the remote store; callers must treat failures
// per their own degrade policy (presence and rate limiting never make a
// store outage fatal to a connection).
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value at key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes key. Missing keys are not an error.
	Del(ctx context.Context, key string) error
	// Incr atomically increments the integer at key, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key: a positive duration if an
	// expiry is set, 0 if the key exists without one, ErrNotFound otherwise.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// SAdd adds member to the set at key. Already-present members are a no-op.
	SAdd(ctx context.Context, key, member string) error
	// SRem removes member from the set at key. Missing members are a no-op.
	SRem(ctx context.Context, key, member string) error
	// SMembers returns all members of the set at key; empty for a missing set.
	SMembers(ctx context.Context, key string) ([]string, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying client.
	Close() error
}
