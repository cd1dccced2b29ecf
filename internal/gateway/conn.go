package gateway

import "time"

// Conn is the subset of *websocket.Conn the gateway drives. Tests substitute
// a scripted connection; production always passes the gorilla conn from the
// upgrader.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}
