// Package presence tracks which users are online using a single TTL'd key
// per user in the expiring store. Absence of a fresh write within the TTL
// means offline, so a crashed connection's presence heals itself without a
// reaper process. Store failures degrade to "unknown/offline" and are
// logged; they are never fatal to the calling connection.
package presence

import (
	"context"
	"time"

	"chat-gateway/internal/fallback"
	"chat-gateway/internal/store"
)

// StatusOnline is the sentinel value an online user's record holds. Any
// other value is a last-seen timestamp.
const StatusOnline = "online"

// DefaultTTL is the presence record lifetime when none is configured.
const DefaultTTL = 300 * time.Second

// MemberSource lists the members of a room; satisfied by room.Manager.
type MemberSource interface {
	MembersOf(ctx context.Context, roomID string) ([]string, error)
}

// Tracker marks users online/offline and answers presence queries.
type Tracker struct {
	store store.Store
	ttl   time.Duration
	fb    *fallback.Policy
	nowF  func() time.Time
}

// New returns a Tracker writing records with the given TTL (DefaultTTL if
// ttl <= 0).
func New(s store.Store, ttl time.Duration, fb *fallback.Policy) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{store: s, ttl: ttl, fb: fb, nowF: time.Now}
}

func key(userID string) string { return "presence:" + userID }

// MarkOnline writes the online sentinel with a fresh TTL. Idempotent;
// repeated calls just slide the TTL.
func (t *Tracker) MarkOnline(ctx context.Context, userID string) {
	if err := t.store.Set(ctx, key(userID), StatusOnline, t.ttl); err != nil {
		t.fb.Degrade("mark online "+userID, err)
	}
}

// Heartbeat refreshes the online record; called on transport-level pongs.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) {
	t.MarkOnline(ctx, userID)
}

// MarkOffline replaces the record with a last-seen timestamp under the same
// TTL, so even offline records self-expire instead of accumulating.
func (t *Tracker) MarkOffline(ctx context.Context, userID string) {
	lastSeen := t.nowF().UTC().Format(time.RFC3339)
	if err := t.store.Set(ctx, key(userID), lastSeen, t.ttl); err != nil {
		t.fb.Degrade("mark offline "+userID, err)
	}
}

// IsOnline reports whether the stored record is exactly the online sentinel.
// Degrades to false when the store is unreachable.
func (t *Tracker) IsOnline(ctx context.Context, userID string) bool {
	v, err := t.store.Get(ctx, key(userID))
	if err != nil {
		if err != store.ErrNotFound {
			t.fb.Degrade("read presence "+userID, err)
		}
		return false
	}
	return v == StatusOnline
}

// LastSeen returns the recorded last-seen time for a user whose record holds
// a timestamp. ok is false when the user is online, unknown, or expired.
func (t *Tracker) LastSeen(ctx context.Context, userID string) (time.Time, bool) {
	v, err := t.store.Get(ctx, key(userID))
	if err != nil {
		if err != store.ErrNotFound {
			t.fb.Degrade("read presence "+userID, err)
		}
		return time.Time{}, false
	}
	if v == StatusOnline {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// OnlineMembersOf returns the members of roomID that are currently online.
// Degrades to an empty slice when the member source or store is unreachable.
func (t *Tracker) OnlineMembersOf(ctx context.Context, rooms MemberSource, roomID string) []string {
	members, err := rooms.MembersOf(ctx, roomID)
	if err != nil {
		t.fb.Degrade("list members "+roomID, err)
		return nil
	}
	online := make([]string, 0, len(members))
	for _, userID := range members {
		if t.IsOnline(ctx, userID) {
			online = append(online, userID)
		}
	}
	return online
}
