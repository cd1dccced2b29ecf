// Package telemetry defines the gateway's lifecycle event emission. Events
// are best-effort; callers log and ignore errors, and a nil or no-op emitter
// is always safe.
package telemetry

import (
	"context"
	"time"
)

// Lifecycle event types emitted by the gateway.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
)

// Event is one gateway lifecycle occurrence.
type Event struct {
	Type         string
	UserID       string
	RoomID       string
	ConnectionID string
	At           time.Time
}

// EventEmitter emits gateway events (e.g. to OTel Logs). Best-effort.
type EventEmitter interface {
	Emit(ctx context.Context, event Event) error
}

// Noop discards all events.
type Noop struct{}

func (Noop) Emit(context.Context, Event) error { return nil }
