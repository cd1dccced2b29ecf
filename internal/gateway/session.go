package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/event"
)

const (
	// pongWait is the transport heartbeat budget: ping interval plus grace.
	pongWait     = 120 * time.Second
	pingInterval = 60 * time.Second
	writeWait    = 10 * time.Second
	maxFrameSize = 4096
	sendBuffer   = 64
)

// Session is one live authenticated connection. It carries exactly one
// identity for its lifetime and is owned by the gateway; it is created on a
// successful handshake and destroyed on disconnect, never persisted.
type Session struct {
	ID          string
	Identity    auth.Identity
	ConnectedAt time.Time

	conn      Conn
	send      chan []byte
	inbound   chan event.Inbound
	done      chan struct{}
	closeOnce sync.Once
	subs      map[string]struct{} // guarded by hub.mu

	gw *Gateway
}

func newSession(gw *Gateway, conn Conn, identity auth.Identity) *Session {
	return &Session{
		ID:          uuid.New().String(),
		Identity:    identity,
		ConnectedAt: time.Now().UTC(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		inbound:     make(chan event.Inbound, 16),
		done:        make(chan struct{}),
		subs:        make(map[string]struct{}),
		gw:          gw,
	}
}

// readPump reads frames, decodes them into tagged events, and queues them
// for the dispatch loop. Any read error, clean or abrupt, tears the session
// down; there is no draining state.
func (s *Session) readPump() {
	defer s.gw.wg.Done()
	defer s.gw.drop(s)

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		// A live transport refreshes presence even on an idle connection.
		s.gw.presence.Heartbeat(context.Background(), s.Identity.ID)
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := event.DecodeInbound(raw)
		if err != nil {
			s.gw.sendDecodeError(s, err)
			continue
		}
		select {
		case s.inbound <- ev:
		case <-s.done:
			return
		}
	}
}

// dispatchLoop processes the session's inbound events sequentially, giving
// clear per-connection ordering while the gateway handles many sessions
// concurrently.
func (s *Session) dispatchLoop() {
	defer s.gw.wg.Done()
	for {
		select {
		case ev := <-s.inbound:
			s.gw.dispatch(s, ev)
		case <-s.done:
			return
		}
	}
}

// writePump owns all writes on the connection: queued frames and transport
// pings.
func (s *Session) writePump() {
	defer s.gw.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.gw.drop(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.gw.drop(s)
				return
			}
		case <-s.done:
			return
		}
	}
}
