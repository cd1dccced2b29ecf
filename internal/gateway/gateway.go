// Package gateway owns the set of live connections: it runs the handshake
// through the auth gate, wires presence and room lifecycle, dispatches
// inbound client events, and fans outbound events to the right sessions.
package gateway

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/event"
	"chat-gateway/internal/presence"
	"chat-gateway/internal/ratelimit"
	"chat-gateway/internal/room"
	"chat-gateway/internal/store"
	"chat-gateway/internal/telemetry"
	otelx "chat-gateway/internal/telemetry/otel"
)

// Options holds the gateway's tunables, injected by the process entry point.
type Options struct {
	MessageRule    ratelimit.Rule
	JoinRule       ratelimit.Rule
	HandshakeRule  ratelimit.Rule
	AllowedOrigins []string
}

// Deps holds the gateway's collaborators. Store, Gate, Presence, Rooms, and
// Limiter are required; Authorizer defaults to AllowAll, Emitter to a no-op,
// and Meters may be nil.
type Deps struct {
	Store      store.Store
	Gate       *auth.Gate
	Presence   *presence.Tracker
	Rooms      *room.Manager
	Authorizer room.Authorizer
	Limiter    *ratelimit.Limiter
	Emitter    telemetry.EventEmitter
	Meters     *otelx.Meters
}

// Gateway supervises every live connection in the process. There is exactly
// one per deployment; the expiring store is the only state shared beyond it.
type Gateway struct {
	opts Options

	store    store.Store
	gate     *auth.Gate
	presence *presence.Tracker
	rooms    *room.Manager
	authz    room.Authorizer
	limiter  *ratelimit.Limiter
	emitter  telemetry.EventEmitter
	meters   *otelx.Meters

	hub      *hub
	fanout   *Fanout
	router   *Router
	upgrader websocket.Upgrader

	mu        sync.Mutex
	accepting bool
	wg        sync.WaitGroup
}

// New constructs a Gateway. Call Start before serving and Stop to tear down.
func New(deps Deps, opts Options) *Gateway {
	if deps.Authorizer == nil {
		deps.Authorizer = room.AllowAll{}
	}
	if deps.Emitter == nil {
		deps.Emitter = telemetry.Noop{}
	}
	g := &Gateway{
		opts:     opts,
		store:    deps.Store,
		gate:     deps.Gate,
		presence: deps.Presence,
		rooms:    deps.Rooms,
		authz:    deps.Authorizer,
		limiter:  deps.Limiter,
		emitter:  deps.Emitter,
		meters:   deps.Meters,
		hub:      newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
	g.fanout = &Fanout{gw: g}
	g.router = &Router{gw: g}
	return g
}

// Fanout returns the room fanout component.
func (g *Gateway) Fanout() *Fanout { return g.fanout }

// Router returns the notification router.
func (g *Gateway) Router() *Router { return g.router }

// Start begins accepting handshakes.
func (g *Gateway) Start() {
	g.mu.Lock()
	g.accepting = true
	g.mu.Unlock()
	log.Printf("gateway: accepting connections")
}

// Stop refuses new handshakes, closes every live session, and waits for
// their goroutines up to ctx's deadline.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	g.accepting = false
	g.mu.Unlock()

	for _, s := range g.hub.all() {
		g.drop(s)
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Printf("gateway: stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SessionCount reports the number of live sessions.
func (g *Gateway) SessionCount() int { return g.hub.count() }

// Handler returns the HTTP handler performing the websocket handshake.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(g.serveWS)
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	accepting := g.accepting
	g.mu.Unlock()
	if !accepting {
		http.Error(w, "gateway unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()

	// The handshake is the only pre-auth surface; limit it by client IP.
	res := g.limiter.Check(ctx, "handshake:"+clientIP(r), g.opts.HandshakeRule)
	if res.Limited {
		g.meters.RateLimitRejected(ctx)
		w.Header().Set("Retry-After", strconv.Itoa(int(res.ResetIn.Seconds())+1))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	identity, err := g.gate.Authenticate(ctx, auth.CredentialFromRequest(r))
	if err != nil {
		g.meters.AuthFailed(ctx)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Printf("gateway: upgrade failed for %s: %v", identity.ID, err)
		return
	}
	g.startSession(conn, identity)
}

// startSession registers the connection, marks presence, announces it to
// peers, and starts the session's pumps.
func (g *Gateway) startSession(conn Conn, identity auth.Identity) *Session {
	s := newSession(g, conn, identity)
	ctx := context.Background()

	g.hub.register(s)
	g.presence.MarkOnline(ctx, identity.ID)
	g.broadcastPresence(s, event.PresenceUpdate{
		UserID: identity.ID,
		Status: presence.StatusOnline,
	})
	g.meters.ConnectionOpened(ctx)
	otelx.EmitAsync(g.emitter, telemetry.Event{
		Type:         telemetry.EventConnect,
		UserID:       identity.ID,
		ConnectionID: s.ID,
		At:           s.ConnectedAt,
	})

	g.wg.Add(3)
	go s.readPump()
	go s.writePump()
	go s.dispatchLoop()
	return s
}

// drop unwinds a session exactly once: registry, transport, presence, and
// the offline announcement. Safe to call from any goroutine, for clean and
// abrupt disconnects alike.
func (g *Gateway) drop(s *Session) {
	s.closeOnce.Do(func() {
		close(s.done)
		ctx := context.Background()
		g.hub.unregister(s)
		_ = s.conn.Close()
		g.presence.MarkOffline(ctx, s.Identity.ID)
		g.broadcastPresence(s, event.PresenceUpdate{
			UserID:   s.Identity.ID,
			Status:   "offline",
			LastSeen: time.Now().UTC().Format(time.RFC3339),
		})
		g.meters.ConnectionClosed(ctx)
		otelx.EmitAsync(g.emitter, telemetry.Event{
			Type:         telemetry.EventDisconnect,
			UserID:       s.Identity.ID,
			ConnectionID: s.ID,
			At:           time.Now().UTC(),
		})
	})
}

// deliver queues a frame on the session. A full buffer means the consumer
// cannot keep up; the connection is dropped rather than blocking the sender.
func (g *Gateway) deliver(s *Session, frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		log.Printf("gateway: session %s (%s) too slow, dropping", s.ID, s.Identity.ID)
		go g.drop(s)
		return false
	}
}

func (g *Gateway) sendEvent(s *Session, eventType string, payload any) {
	frame, err := event.Marshal(eventType, payload)
	if err != nil {
		log.Printf("gateway: encode %s: %v", eventType, err)
		return
	}
	if g.deliver(s, frame) {
		g.meters.EventsDelivered(context.Background(), 1)
	}
}

func (g *Gateway) sendError(s *Session, code, message string) {
	g.sendEvent(s, event.TypeError, event.Error{Message: message, Code: code})
}

func (g *Gateway) sendDecodeError(s *Session, err error) {
	switch {
	case errors.Is(err, event.ErrUnknownType):
		g.sendError(s, event.CodeBadRequest, "unknown event type")
	default:
		g.sendError(s, event.CodeBadRequest, clientMessage(err))
	}
}

// clientMessage extracts the safe, validation-level text from a decode
// error. Internal errors are never forwarded raw.
func clientMessage(err error) string {
	if errors.Is(err, event.ErrInvalidPayload) {
		return err.Error()
	}
	return "invalid event"
}

// broadcastPresence announces a presence transition to every session except
// the one that caused it. Best-effort; no ordering guarantee relative to
// presence reads.
func (g *Gateway) broadcastPresence(except *Session, update event.PresenceUpdate) {
	frame, err := event.Marshal(event.TypePresenceUpdate, update)
	if err != nil {
		log.Printf("gateway: encode presence update: %v", err)
		return
	}
	delivered := int64(0)
	for _, peer := range g.hub.all() {
		if peer == except {
			continue
		}
		if g.deliver(peer, frame) {
			delivered++
		}
	}
	g.meters.EventsDelivered(context.Background(), delivered)
}

// originChecker builds the upgrader origin check: nil (gorilla's same-origin
// default) when no origins are configured, otherwise an allow-list match
// with "*" wildcard support.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
