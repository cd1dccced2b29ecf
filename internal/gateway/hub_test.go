package gateway

import (
	"testing"

	"chat-gateway/internal/auth"
)

func hubSession(userID string) *Session {
	return &Session{
		ID:       userID + "-conn",
		Identity: auth.Identity{ID: userID, Role: auth.RoleMember},
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		subs:     make(map[string]struct{}),
	}
}

func TestHubRegisterTracksPrivateChannel(t *testing.T) {
	h := newHub()
	a1 := hubSession("alice")
	a2 := hubSession("alice")
	b := hubSession("bob")
	h.register(a1)
	h.register(a2)
	h.register(b)

	if got := h.count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if got := len(h.userSessions("alice")); got != 2 {
		t.Errorf("alice sessions = %d, want 2", got)
	}
	if got := len(h.userSessions("bob")); got != 1 {
		t.Errorf("bob sessions = %d, want 1", got)
	}
}

func TestHubUnregisterCleansEverything(t *testing.T) {
	h := newHub()
	s := hubSession("alice")
	h.register(s)
	h.subscribe(s, "r1")
	h.subscribe(s, "r2")

	h.unregister(s)

	if got := h.count(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
	if got := len(h.roomSessions("r1")); got != 0 {
		t.Errorf("r1 sessions = %d, want 0", got)
	}
	if got := len(h.roomSessions("r2")); got != 0 {
		t.Errorf("r2 sessions = %d, want 0", got)
	}
	if got := len(h.userSessions("alice")); got != 0 {
		t.Errorf("alice sessions = %d, want 0", got)
	}
}

func TestHubSubscribeAfterUnregisterIsNoop(t *testing.T) {
	h := newHub()
	s := hubSession("alice")
	h.register(s)
	h.unregister(s)

	h.subscribe(s, "r1")

	if h.subscribed(s, "r1") {
		t.Error("dead session subscribed to r1")
	}
	if got := len(h.roomSessions("r1")); got != 0 {
		t.Errorf("r1 sessions = %d, want 0", got)
	}
}

func TestHubUnsubscribeLeavesOtherSubscribers(t *testing.T) {
	h := newHub()
	a := hubSession("alice")
	b := hubSession("bob")
	h.register(a)
	h.register(b)
	h.subscribe(a, "r1")
	h.subscribe(b, "r1")

	h.unsubscribe(a, "r1")

	if h.subscribed(a, "r1") {
		t.Error("alice still subscribed after unsubscribe")
	}
	if !h.subscribed(b, "r1") {
		t.Error("bob lost subscription")
	}
	if got := len(h.roomSessions("r1")); got != 1 {
		t.Errorf("r1 sessions = %d, want 1", got)
	}
}
