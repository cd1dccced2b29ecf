package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	set       map[string]struct{}
	expiresAt time.Time // zero means no expiry
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Memory is an in-memory Store for tests. It honors TTLs against an
// injectable clock and can be switched into a failing state to exercise
// outage handling.
type Memory struct {
	mu      sync.Mutex
	m       map[string]*memEntry
	nowF    func() time.Time
	failErr error
}

// NewMemory returns an empty in-memory store using the real clock.
func NewMemory() *Memory {
	return &Memory{
		m:    make(map[string]*memEntry),
		nowF: time.Now,
	}
}

// SetClock replaces the store's clock. Expiry is evaluated lazily on access,
// so moving the clock forward makes TTL'd entries vanish.
func (s *Memory) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowF = now
}

// FailWith makes every subsequent operation return err. Pass nil to heal.
func (s *Memory) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// live returns the entry at key if present and unexpired. Caller holds mu.
func (s *Memory) live(key string) *memEntry {
	e, ok := s.m[key]
	if !ok {
		return nil
	}
	if e.expired(s.nowF()) {
		delete(s.m, key)
		return nil
	}
	return e
}

func (s *Memory) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return "", s.failErr
	}
	e := s.live(key)
	if e == nil {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	e := &memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.nowF().Add(ttl)
	}
	s.m[key] = e
	return nil
}

func (s *Memory) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	delete(s.m, key)
	return nil
}

func (s *Memory) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	e := s.live(key)
	if e == nil {
		e = &memEntry{value: "0"}
		s.m[key] = e
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *Memory) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if e := s.live(key); e != nil {
		e.expiresAt = s.nowF().Add(ttl)
	}
	return nil
}

func (s *Memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	e := s.live(key)
	if e == nil {
		return 0, ErrNotFound
	}
	if e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(s.nowF()), nil
}

func (s *Memory) SAdd(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	e := s.live(key)
	if e == nil {
		e = &memEntry{set: make(map[string]struct{})}
		s.m[key] = e
	}
	if e.set == nil {
		e.set = make(map[string]struct{})
	}
	e.set[member] = struct{}{}
	return nil
}

func (s *Memory) SRem(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if e := s.live(key); e != nil && e.set != nil {
		delete(e.set, member)
		if len(e.set) == 0 {
			delete(s.m, key)
		}
	}
	return nil
}

func (s *Memory) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	e := s.live(key)
	if e == nil || e.set == nil {
		return nil, nil
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	return out, nil
}

func (s *Memory) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failErr
}

func (s *Memory) Close() error { return nil }
