package room

import (
	"context"
	"errors"
	"sort"
	"testing"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/fallback"
	"chat-gateway/internal/store"
)

func newManager() (*Manager, *store.Memory) {
	mem := store.NewMemory()
	return NewManager(mem, fallback.NewWithLogf("room", func(string, ...any) {})), mem
}

func TestJoinLeaveMembersOf(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	if err := m.Join(ctx, "r1", "a"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	// Repeated join is a no-op (set semantics).
	if err := m.Join(ctx, "r1", "a"); err != nil {
		t.Fatalf("repeat Join: %v", err)
	}
	if err := m.Join(ctx, "r1", "b"); err != nil {
		t.Fatalf("Join b: %v", err)
	}

	members, err := m.MembersOf(ctx, "r1")
	if err != nil {
		t.Fatalf("MembersOf: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "a" || members[1] != "b" {
		t.Fatalf("members = %v, want [a b]", members)
	}

	if err := m.Leave(ctx, "r1", "a"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	members, _ = m.MembersOf(ctx, "r1")
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("members after leave = %v, want [b]", members)
	}

	// Leaving as a non-member is a no-op.
	if err := m.Leave(ctx, "r1", "never-joined"); err != nil {
		t.Fatalf("Leave non-member: %v", err)
	}
	// So is leaving a room that does not exist.
	if err := m.Leave(ctx, "no-such-room", "a"); err != nil {
		t.Fatalf("Leave missing room: %v", err)
	}
}

func TestMembersOf_EmptyRoom(t *testing.T) {
	m, _ := newManager()
	members, err := m.MembersOf(context.Background(), "empty")
	if err != nil {
		t.Fatalf("MembersOf: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("members = %v, want empty", members)
	}
}

func TestStoreOutage(t *testing.T) {
	m, mem := newManager()
	ctx := context.Background()
	mem.FailWith(errors.New("connection refused"))

	if err := m.Join(ctx, "r1", "a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Join during outage = %v, want ErrUnavailable", err)
	}
	if err := m.Leave(ctx, "r1", "a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Leave during outage = %v, want ErrUnavailable", err)
	}
	// Reads degrade to empty rather than failing.
	members, err := m.MembersOf(ctx, "r1")
	if err != nil || len(members) != 0 {
		t.Errorf("MembersOf during outage = (%v, %v), want empty, nil", members, err)
	}
}

type denyAll struct{}

func (denyAll) MayJoin(context.Context, string, auth.Role, string) (bool, error) {
	return false, nil
}

type recordingAuthorizer struct {
	calls int
	allow bool
}

func (r *recordingAuthorizer) MayJoin(context.Context, string, auth.Role, string) (bool, error) {
	r.calls++
	return r.allow, nil
}

func TestPolicyAuthorizer_AdminOverride(t *testing.T) {
	ctx := context.Background()
	inner := &recordingAuthorizer{allow: false}
	a, err := NewPolicyAuthorizer(ctx, inner)
	if err != nil {
		t.Fatalf("NewPolicyAuthorizer: %v", err)
	}

	ok, err := a.MayJoin(ctx, "u1", auth.RoleAdmin, "r1")
	if err != nil || !ok {
		t.Fatalf("admin MayJoin = (%v, %v), want allowed without consulting inner", ok, err)
	}
	if inner.calls != 0 {
		t.Errorf("inner consulted %d times for admin, want 0", inner.calls)
	}
}

func TestPolicyAuthorizer_FallsThroughToInner(t *testing.T) {
	ctx := context.Background()

	a, err := NewPolicyAuthorizer(ctx, denyAll{})
	if err != nil {
		t.Fatalf("NewPolicyAuthorizer: %v", err)
	}
	if ok, err := a.MayJoin(ctx, "u1", auth.RoleMember, "r1"); err != nil || ok {
		t.Fatalf("member MayJoin = (%v, %v), want denied by inner", ok, err)
	}

	allow := &recordingAuthorizer{allow: true}
	a, err = NewPolicyAuthorizer(ctx, allow)
	if err != nil {
		t.Fatalf("NewPolicyAuthorizer: %v", err)
	}
	if ok, err := a.MayJoin(ctx, "u1", auth.RoleMember, "r1"); err != nil || !ok {
		t.Fatalf("member MayJoin = (%v, %v), want allowed by inner", ok, err)
	}
	if allow.calls != 1 {
		t.Errorf("inner consulted %d times, want 1", allow.calls)
	}
}
