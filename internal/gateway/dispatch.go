package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chat-gateway/internal/event"
	"chat-gateway/internal/telemetry"
	otelx "chat-gateway/internal/telemetry/otel"
)

// dispatch routes one decoded inbound event to its handler. Called only
// from the session's dispatch loop, so handlers see each connection's
// events in arrival order.
func (g *Gateway) dispatch(s *Session, ev event.Inbound) {
	ctx := context.Background()
	g.meters.EventReceived(ctx)

	switch e := ev.(type) {
	case event.JoinRoom:
		g.handleJoin(ctx, s, e)
	case event.LeaveRoom:
		g.handleLeave(ctx, s, e)
	case event.SendMessage:
		g.handleSend(ctx, s, e)
	case event.TypingStart:
		g.handleTypingStart(ctx, s, e)
	case event.TypingStop:
		g.handleTypingStop(ctx, s, e)
	case event.MarkRead:
		g.handleMarkRead(ctx, s, e)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, s *Session, e event.JoinRoom) {
	if g.limited(ctx, s, "joins") {
		return
	}

	ok, err := g.authz.MayJoin(ctx, s.Identity.ID, s.Identity.Role, e.RoomID)
	if err != nil {
		g.sendError(s, event.CodeUnavailable, "room membership is temporarily unavailable")
		return
	}
	if !ok {
		g.sendEvent(s, event.TypeRoomJoined, event.RoomJoined{RoomID: e.RoomID, Success: false})
		g.sendError(s, event.CodeForbidden, "not a participant of this room")
		return
	}

	if err := g.rooms.Join(ctx, e.RoomID, s.Identity.ID); err != nil {
		g.sendError(s, event.CodeUnavailable, "room membership is temporarily unavailable")
		return
	}
	g.hub.subscribe(s, e.RoomID)
	g.sendEvent(s, event.TypeRoomJoined, event.RoomJoined{RoomID: e.RoomID, Success: true})
	otelx.EmitAsync(g.emitter, telemetry.Event{
		Type:         telemetry.EventJoinRoom,
		UserID:       s.Identity.ID,
		RoomID:       e.RoomID,
		ConnectionID: s.ID,
		At:           time.Now().UTC(),
	})
}

func (g *Gateway) handleLeave(ctx context.Context, s *Session, e event.LeaveRoom) {
	// Unsubscribe locally even when the store write fails; the member set
	// entry is advisory and the TTL'd presence record bounds its staleness.
	g.hub.unsubscribe(s, e.RoomID)
	if err := g.rooms.Leave(ctx, e.RoomID, s.Identity.ID); err != nil {
		g.sendError(s, event.CodeUnavailable, "room membership is temporarily unavailable")
		return
	}
	g.sendEvent(s, event.TypeRoomLeft, event.RoomLeft{RoomID: e.RoomID, Success: true})
	otelx.EmitAsync(g.emitter, telemetry.Event{
		Type:         telemetry.EventLeaveRoom,
		UserID:       s.Identity.ID,
		RoomID:       e.RoomID,
		ConnectionID: s.ID,
		At:           time.Now().UTC(),
	})
}

func (g *Gateway) handleSend(ctx context.Context, s *Session, e event.SendMessage) {
	if !g.hub.subscribed(s, e.RoomID) {
		g.sendError(s, event.CodeForbidden, "join the room before sending messages")
		return
	}
	if g.limited(ctx, s, "messages") {
		return
	}

	messageType := e.MessageType
	if messageType == "" {
		messageType = "text"
	}
	// The sender's sessions are included in the fanout: the echoed message
	// carries the gateway-assigned ID and timestamp.
	g.fanout.BroadcastToRoom(e.RoomID, event.TypeNewMessage, event.NewMessage{
		ID:          uuid.New().String(),
		RoomID:      e.RoomID,
		SenderID:    s.Identity.ID,
		SenderEmail: s.Identity.Email,
		Content:     e.Content,
		MessageType: messageType,
		FileURL:     e.FileURL,
		SentAt:      time.Now().UTC(),
	})
}

func (g *Gateway) handleTypingStart(ctx context.Context, s *Session, e event.TypingStart) {
	if !g.hub.subscribed(s, e.RoomID) {
		return
	}
	g.fanout.BroadcastToRoomExcept(s, e.RoomID, event.TypeUserTyping, event.UserTyping{
		RoomID: e.RoomID,
		UserID: s.Identity.ID,
		Email:  s.Identity.Email,
	})
}

func (g *Gateway) handleTypingStop(ctx context.Context, s *Session, e event.TypingStop) {
	if !g.hub.subscribed(s, e.RoomID) {
		return
	}
	g.fanout.BroadcastToRoomExcept(s, e.RoomID, event.TypeUserStoppedTyping, event.UserStoppedTyping{
		RoomID: e.RoomID,
		UserID: s.Identity.ID,
	})
}

func (g *Gateway) handleMarkRead(ctx context.Context, s *Session, e event.MarkRead) {
	if !g.hub.subscribed(s, e.RoomID) {
		return
	}
	g.fanout.BroadcastToRoom(e.RoomID, event.TypeMessagesRead, event.MessagesRead{
		RoomID: e.RoomID,
		UserID: s.Identity.ID,
	})
}

// limited checks the per-user fixed window for the given route and, when the
// limit is hit, tells the client and records the rejection. The event is
// discarded; the connection stays up.
func (g *Gateway) limited(ctx context.Context, s *Session, route string) bool {
	var rule = g.opts.MessageRule
	if route == "joins" {
		rule = g.opts.JoinRule
	}
	res := g.limiter.Check(ctx, route+":"+s.Identity.ID, rule)
	if !res.Limited {
		return false
	}
	g.meters.RateLimitRejected(ctx)
	retryIn := int(res.ResetIn.Seconds()) + 1
	g.sendError(s, event.CodeRateLimited, fmt.Sprintf("rate limit exceeded, retry in %ds", retryIn))
	return true
}
