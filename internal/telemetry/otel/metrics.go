package otel

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Meters holds the gateway's instruments. A nil *Meters is safe to call.
type Meters struct {
	activeConnections   metric.Int64UpDownCounter
	eventsReceived      metric.Int64Counter
	eventsDelivered     metric.Int64Counter
	rateLimitRejections metric.Int64Counter
	authFailures        metric.Int64Counter
}

// NewMeters creates the gateway instruments on the given provider.
func NewMeters(provider metric.MeterProvider) (*Meters, error) {
	meter := provider.Meter("chat-gateway")
	m := &Meters{}
	var err error
	if m.activeConnections, err = meter.Int64UpDownCounter("gateway.connections.active",
		metric.WithDescription("Currently open client connections")); err != nil {
		return nil, err
	}
	if m.eventsReceived, err = meter.Int64Counter("gateway.events.received",
		metric.WithDescription("Inbound client events accepted for dispatch")); err != nil {
		return nil, err
	}
	if m.eventsDelivered, err = meter.Int64Counter("gateway.events.delivered",
		metric.WithDescription("Outbound events written to client sessions")); err != nil {
		return nil, err
	}
	if m.rateLimitRejections, err = meter.Int64Counter("gateway.ratelimit.rejections",
		metric.WithDescription("Requests rejected by the fixed-window limiter")); err != nil {
		return nil, err
	}
	if m.authFailures, err = meter.Int64Counter("gateway.auth.failures",
		metric.WithDescription("Handshakes rejected by the auth gate")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Meters) ConnectionOpened(ctx context.Context) {
	if m != nil {
		m.activeConnections.Add(ctx, 1)
	}
}

func (m *Meters) ConnectionClosed(ctx context.Context) {
	if m != nil {
		m.activeConnections.Add(ctx, -1)
	}
}

func (m *Meters) EventReceived(ctx context.Context) {
	if m != nil {
		m.eventsReceived.Add(ctx, 1)
	}
}

func (m *Meters) EventsDelivered(ctx context.Context, n int64) {
	if m != nil && n > 0 {
		m.eventsDelivered.Add(ctx, n)
	}
}

func (m *Meters) RateLimitRejected(ctx context.Context) {
	if m != nil {
		m.rateLimitRejections.Add(ctx, 1)
	}
}

func (m *Meters) AuthFailed(ctx context.Context) {
	if m != nil {
		m.authFailures.Add(ctx, 1)
	}
}
