package otel

import (
	"context"
	"log"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"chat-gateway/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that records gateway lifecycle
// events as OTel log records via the given LoggerProvider. A nil provider
// yields a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return telemetry.Noop{}
	}
	return &otelEmitter{logger: provider.Logger("chat-gateway.lifecycle")}
}

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record. Best-effort.
func (e *otelEmitter) Emit(ctx context.Context, event telemetry.Event) error {
	rec := otellog.Record{}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetBody(otellog.StringValue(event.Type))
	rec.AddAttributes(otellog.String("event_type", event.Type))
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.RoomID != "" {
		rec.AddAttributes(otellog.String("room_id", event.RoomID))
	}
	if event.ConnectionID != "" {
		rec.AddAttributes(otellog.String("connection_id", event.ConnectionID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

// EmitAsync runs Emit in a goroutine with a short timeout so the connection
// loop is never blocked on telemetry. Errors are logged.
func EmitAsync(emitter telemetry.EventEmitter, event telemetry.Event) {
	if emitter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
