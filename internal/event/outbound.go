package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Server→client event types.
const (
	TypeNewMessage        = "new_message"
	TypeUserTyping        = "user_typing"
	TypeUserStoppedTyping = "user_stopped_typing"
	TypeNotification      = "notification"
	TypePresenceUpdate    = "presence_update"
	TypeRoomJoined        = "room_joined"
	TypeRoomLeft          = "room_left"
	TypeMessagesRead      = "messages_read"
	TypeError             = "error"
)

// Notification severities.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Error codes carried on the error event.
const (
	CodeBadRequest  = "bad_request"
	CodeForbidden   = "forbidden"
	CodeRateLimited = "rate_limited"
	CodeUnavailable = "unavailable"
)

// NewMessage is a chat message fanned out to a room's live subscribers.
type NewMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	SenderID    string    `json:"senderId"`
	SenderEmail string    `json:"senderEmail,omitempty"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	FileURL     string    `json:"fileUrl,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// UserTyping reports a peer started typing in a room.
type UserTyping struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// UserStoppedTyping reports a peer stopped typing in a room.
type UserStoppedTyping struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// Notification is a typed advisory addressed to a user, a room, or all
// sessions. Transient; never persisted by the gateway.
type Notification struct {
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// PresenceUpdate reports a user's online/offline transition. LastSeen is
// set only for offline updates.
type PresenceUpdate struct {
	UserID   string `json:"userId"`
	Status   string `json:"status"`
	LastSeen string `json:"lastSeen,omitempty"`
}

// RoomJoined acknowledges a join_room request, distinguishing success from
// authorization failure.
type RoomJoined struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}

// RoomLeft acknowledges a leave_room request.
type RoomLeft struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}

// MessagesRead is the live hint that a user caught up in a room.
type MessagesRead struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// Error is the uniform failure event sent to the originating connection
// only. Message is safe for clients; internal error text never appears here.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Marshal wraps payload in the {"type", "data"} envelope.
func Marshal(eventType string, payload any) ([]byte, error) {
	frame, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{Type: eventType, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s: %w", eventType, err)
	}
	return frame, nil
}
