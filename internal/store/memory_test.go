package store

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryGetMissingKey(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get(t.Context(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestMemorySetGetDel(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()
	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Del = %v, want ErrNotFound", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()
	now := time.Now()
	s.SetClock(func() time.Time { return now })

	if err := s.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ttl, err := s.TTL(ctx, "k")
	if err != nil || ttl != 10*time.Second {
		t.Fatalf("TTL = %v, %v", ttl, err)
	}

	now = now.Add(11 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after expiry = %v, want ErrNotFound", err)
	}
	if _, err := s.TTL(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("TTL after expiry = %v, want ErrNotFound", err)
	}
}

func TestMemoryTTLNoExpiry(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()
	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ttl, err := s.TTL(ctx, "k")
	if err != nil || ttl != 0 {
		t.Fatalf("TTL = %v, %v, want 0, nil", ttl, err)
	}
}

func TestMemoryIncrAndExpire(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()
	now := time.Now()
	s.SetClock(func() time.Time { return now })

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr(ctx, "counter")
		if err != nil || n != want {
			t.Fatalf("Incr = %d, %v, want %d", n, err, want)
		}
	}
	if err := s.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	now = now.Add(2 * time.Minute)
	n, err := s.Incr(ctx, "counter")
	if err != nil || n != 1 {
		t.Fatalf("Incr after window = %d, %v, want fresh counter", n, err)
	}
}

func TestMemorySets(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()

	for _, m := range []string{"alice", "bob", "alice"} {
		if err := s.SAdd(ctx, "room", m); err != nil {
			t.Fatalf("SAdd %s: %v", m, err)
		}
	}
	members, err := s.SMembers(ctx, "room")
	if err != nil || len(members) != 2 {
		t.Fatalf("SMembers = %v, %v, want 2 members", members, err)
	}

	if err := s.SRem(ctx, "room", "alice"); err != nil {
		t.Fatalf("SRem: %v", err)
	}
	members, _ = s.SMembers(ctx, "room")
	if len(members) != 1 || members[0] != "bob" {
		t.Fatalf("SMembers after SRem = %v, want [bob]", members)
	}

	// Removing the last member deletes the key entirely.
	if err := s.SRem(ctx, "room", "bob"); err != nil {
		t.Fatalf("SRem: %v", err)
	}
	members, err = s.SMembers(ctx, "room")
	if err != nil || len(members) != 0 {
		t.Fatalf("SMembers of empty set = %v, %v", members, err)
	}
}

func TestMemoryFailWith(t *testing.T) {
	s := NewMemory()
	ctx := t.Context()
	boom := errors.New("boom")

	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.FailWith(boom)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("Get during outage = %v, want boom", err)
	}
	if err := s.SAdd(ctx, "set", "m"); !errors.Is(err, boom) {
		t.Fatalf("SAdd during outage = %v, want boom", err)
	}

	s.FailWith(nil)
	if v, err := s.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("Get after heal = %q, %v", v, err)
	}
}
