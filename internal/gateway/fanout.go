package gateway

import (
	"context"
	"log"

	"chat-gateway/internal/event"
)

// Fanout delivers room-scoped events to every session currently subscribed
// to the room. Delivery is per-session best-effort; one slow consumer never
// blocks or fails delivery to its peers.
type Fanout struct {
	gw *Gateway
}

// BroadcastToRoom sends eventType/payload to every subscriber of roomID,
// including the sender's own sessions.
func (f *Fanout) BroadcastToRoom(roomID, eventType string, payload any) {
	f.broadcast(roomID, eventType, payload, nil)
}

// BroadcastToRoomExcept sends eventType/payload to every subscriber of
// roomID except the given session. Typing indicators use this so a client
// never sees its own typing echoed back.
func (f *Fanout) BroadcastToRoomExcept(except *Session, roomID, eventType string, payload any) {
	f.broadcast(roomID, eventType, payload, except)
}

func (f *Fanout) broadcast(roomID, eventType string, payload any, except *Session) {
	frame, err := event.Marshal(eventType, payload)
	if err != nil {
		log.Printf("gateway: encode %s for room %s: %v", eventType, roomID, err)
		return
	}
	delivered := int64(0)
	for _, s := range f.gw.hub.roomSessions(roomID) {
		if s == except {
			continue
		}
		if f.gw.deliver(s, frame) {
			delivered++
		}
	}
	f.gw.meters.EventsDelivered(context.Background(), delivered)
}

// Router addresses notification events by recipient rather than by room
// subscription: a single user's sessions, a room's subscribers, or every
// live session.
type Router struct {
	gw *Gateway
}

// NotifyUser delivers a notification to every live session of userID. A
// user with no live sessions receives nothing; notifications are transient.
func (r *Router) NotifyUser(userID string, n event.Notification) {
	frame, err := event.Marshal(event.TypeNotification, n)
	if err != nil {
		log.Printf("gateway: encode notification for %s: %v", userID, err)
		return
	}
	delivered := int64(0)
	for _, s := range r.gw.hub.userSessions(userID) {
		if r.gw.deliver(s, frame) {
			delivered++
		}
	}
	r.gw.meters.EventsDelivered(context.Background(), delivered)
}

// NotifyRoom delivers a notification to every subscriber of roomID.
func (r *Router) NotifyRoom(roomID string, n event.Notification) {
	r.gw.fanout.BroadcastToRoom(roomID, event.TypeNotification, n)
}

// NotifyAll delivers a notification to every live session.
func (r *Router) NotifyAll(n event.Notification) {
	frame, err := event.Marshal(event.TypeNotification, n)
	if err != nil {
		log.Printf("gateway: encode broadcast notification: %v", err)
		return
	}
	delivered := int64(0)
	for _, s := range r.gw.hub.all() {
		if r.gw.deliver(s, frame) {
			delivered++
		}
	}
	r.gw.meters.EventsDelivered(context.Background(), delivered)
}
