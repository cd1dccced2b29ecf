package gateway

import "sync"

// hub is the authoritative registry of live sessions and their room and
// private-channel subscriptions. Sessions never touch each other's state;
// all cross-session visibility goes through here.
type hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	rooms    map[string]map[*Session]struct{}
	users    map[string]map[*Session]struct{}
}

func newHub() *hub {
	return &hub{
		sessions: make(map[*Session]struct{}),
		rooms:    make(map[string]map[*Session]struct{}),
		users:    make(map[string]map[*Session]struct{}),
	}
}

// register adds s and subscribes it to its identity's private channel for
// the life of the session.
func (h *hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
	userID := s.Identity.ID
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Session]struct{})
	}
	h.users[userID][s] = struct{}{}
}

// unregister removes s everywhere: registry, private channel, and all room
// subscriptions. Disconnect implicitly unsubscribes without explicit leaves.
func (h *hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
	userID := s.Identity.ID
	if set := h.users[userID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.users, userID)
		}
	}
	for roomID := range s.subs {
		h.dropFromRoom(s, roomID)
	}
	s.subs = make(map[string]struct{})
}

func (h *hub) dropFromRoom(s *Session, roomID string) {
	if set := h.rooms[roomID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *hub) subscribe(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.sessions[s]; !live {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Session]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
	s.subs[roomID] = struct{}{}
}

func (h *hub) unsubscribe(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(s, roomID)
	delete(s.subs, roomID)
}

func (h *hub) subscribed(s *Session, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := s.subs[roomID]
	return ok
}

func (h *hub) roomSessions(roomID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		out = append(out, s)
	}
	return out
}

func (h *hub) userSessions(userID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.users[userID]))
	for s := range h.users[userID] {
		out = append(out, s)
	}
	return out
}

func (h *hub) all() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s)
	}
	return out
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
