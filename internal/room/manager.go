// Package room tracks transient presence-in-room membership in the expiring
// store and decides whether an identity may join a room at all. Business
// rules live in the system of record; the manager itself only keeps the
// connection-time member sets.
package room

import (
	"context"
	"errors"
	"fmt"

	"chat-gateway/internal/fallback"
	"chat-gateway/internal/store"
)

// ErrUnavailable is returned when a join/leave cannot reach the store. The
// supervisor translates it into an error event; it must not tear down the
// connection.
var ErrUnavailable = errors.New("room: store unavailable")

// Manager mutates and reads the per-room member sets.
type Manager struct {
	store store.Store
	fb    *fallback.Policy
}

// NewManager returns a Manager on the given store.
func NewManager(s store.Store, fb *fallback.Policy) *Manager {
	return &Manager{store: s, fb: fb}
}

func membersKey(roomID string) string { return "room:members:" + roomID }

// Join adds userID to the room's member set. Set semantics; repeated joins
// are a no-op.
func (m *Manager) Join(ctx context.Context, roomID, userID string) error {
	if err := m.store.SAdd(ctx, membersKey(roomID), userID); err != nil {
		m.fb.Degrade(fmt.Sprintf("join %s/%s", roomID, userID), err)
		return ErrUnavailable
	}
	return nil
}

// Leave removes userID from the room's member set. Leaving a room the user
// is not a member of is a no-op.
func (m *Manager) Leave(ctx context.Context, roomID, userID string) error {
	if err := m.store.SRem(ctx, membersKey(roomID), userID); err != nil {
		m.fb.Degrade(fmt.Sprintf("leave %s/%s", roomID, userID), err)
		return ErrUnavailable
	}
	return nil
}

// MembersOf returns the member set of roomID. Degrades to empty when the
// store is unreachable; presence queries over a missing set simply see no
// one.
func (m *Manager) MembersOf(ctx context.Context, roomID string) ([]string, error) {
	members, err := m.store.SMembers(ctx, membersKey(roomID))
	if err != nil {
		m.fb.Degrade("members of "+roomID, err)
		return nil, nil
	}
	return members, nil
}
