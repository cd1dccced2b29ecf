// Package event models the wire protocol: each client→server and
// server→client event is a tagged variant with one concrete payload shape
// per tag, validated at the connection boundary before dispatch.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client→server event types.
const (
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeSendMessage = "send_message"
	TypeTypingStart = "typing_start"
	TypeTypingStop  = "typing_stop"
	TypeMarkRead    = "mark_read"
)

var (
	// ErrUnknownType is returned for an event type the gateway does not speak.
	ErrUnknownType = errors.New("event: unknown type")
	// ErrInvalidPayload is returned when a payload fails decoding or validation.
	ErrInvalidPayload = errors.New("event: invalid payload")
)

// MaxContentLength bounds send_message content.
const MaxContentLength = 4000

// Inbound is the sealed set of client→server events.
type Inbound interface {
	inbound()
}

// JoinRoom subscribes the session to a room (after authorization).
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// LeaveRoom unsubscribes the session from a room.
type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

// SendMessage delivers a chat message to a room's live subscribers.
// Persistence is the API layer's concern, not the gateway's.
type SendMessage struct {
	RoomID      string `json:"roomId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
}

// TypingStart signals the user began typing in a room.
type TypingStart struct {
	RoomID string `json:"roomId"`
}

// TypingStop signals the user stopped typing in a room.
type TypingStop struct {
	RoomID string `json:"roomId"`
}

// MarkRead signals the user has read a room; fanned out as a live hint only.
type MarkRead struct {
	RoomID string `json:"roomId"`
}

func (JoinRoom) inbound()    {}
func (LeaveRoom) inbound()   {}
func (SendMessage) inbound() {}
func (TypingStart) inbound() {}
func (TypingStop) inbound()  {}
func (MarkRead) inbound()    {}

func (e JoinRoom) validate() error  { return requireRoom(e.RoomID) }
func (e LeaveRoom) validate() error { return requireRoom(e.RoomID) }
func (e TypingStart) validate() error {
	return requireRoom(e.RoomID)
}
func (e TypingStop) validate() error { return requireRoom(e.RoomID) }
func (e MarkRead) validate() error   { return requireRoom(e.RoomID) }

func (e SendMessage) validate() error {
	if err := requireRoom(e.RoomID); err != nil {
		return err
	}
	if e.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidPayload)
	}
	if len(e.Content) > MaxContentLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalidPayload, MaxContentLength)
	}
	switch e.MessageType {
	case "", "text", "image", "file":
	default:
		return fmt.Errorf("%w: unknown messageType %q", ErrInvalidPayload, e.MessageType)
	}
	return nil
}

func requireRoom(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: roomId is required", ErrInvalidPayload)
	}
	return nil
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeInbound parses a wire frame into its tagged variant, validating the
// payload. Errors wrap ErrUnknownType or ErrInvalidPayload; raw decode
// details never reach the client.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", ErrInvalidPayload)
	}

	var (
		ev  Inbound
		err error
	)
	switch env.Type {
	case TypeJoinRoom:
		ev, err = decodePayload[JoinRoom](env.Data)
	case TypeLeaveRoom:
		ev, err = decodePayload[LeaveRoom](env.Data)
	case TypeSendMessage:
		ev, err = decodePayload[SendMessage](env.Data)
	case TypeTypingStart:
		ev, err = decodePayload[TypingStart](env.Data)
	case TypeTypingStop:
		ev, err = decodePayload[TypingStop](env.Data)
	case TypeMarkRead:
		ev, err = decodePayload[MarkRead](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

type validator interface {
	Inbound
	validate() error
}

func decodePayload[T validator](data json.RawMessage) (Inbound, error) {
	var payload T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: malformed payload", ErrInvalidPayload)
		}
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
