package realtime

import (
	"context"

	"go.uber.org/zap"

	"ridehail/internal/metrics"
)

// Dispatcher delivers events to parties through the Registry. Delivery is
// fire and forget: nothing is queued for a party that is not connected.
type Dispatcher struct {
	registry *Registry
	logger   *zap.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Notify pushes an event to one party. A missing connection is logged and
// the event dropped.
func (d *Dispatcher) Notify(ctx context.Context, partyID, event string, payload any) {
	conn, ok := d.registry.Lookup(partyID)
	if !ok {
		metrics.Notifications.WithLabelValues(event, metrics.OutcomeMissed).Inc()
		d.logger.Debug("delivery miss: party not connected",
			zap.String("party_id", partyID),
			zap.String("event", event),
		)
		return
	}

	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	d.deliver(conn, event, frame)
}

// BroadcastToOnlineDrivers pushes an event to every driver online at the
// time of the call.
func (d *Dispatcher) BroadcastToOnlineDrivers(ctx context.Context, event string, payload any) {
	conns := d.registry.AllOnlineDrivers()
	if len(conns) == 0 {
		metrics.Notifications.WithLabelValues(event, metrics.OutcomeMissed).Inc()
		d.logger.Debug("broadcast with no online drivers", zap.String("event", event))
		return
	}

	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	for _, conn := range conns {
		d.deliver(conn, event, frame)
	}
}

// Relay pushes an event to every open connection except from.
func (d *Dispatcher) Relay(ctx context.Context, from Conn, event string, payload any) {
	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	for _, conn := range d.registry.Connections() {
		if conn.ID() == from.ID() {
			continue
		}
		d.deliver(conn, event, frame)
	}
}

// SendTo pushes an event straight to one connection.
func (d *Dispatcher) SendTo(conn Conn, event string, payload any) {
	frame, ok := d.encode(event, payload)
	if !ok {
		return
	}
	d.deliver(conn, event, frame)
}

func (d *Dispatcher) encode(event string, payload any) ([]byte, bool) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		d.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return frame, true
}

func (d *Dispatcher) deliver(conn Conn, event string, frame []byte) {
	if err := conn.Send(frame); err != nil {
		metrics.Notifications.WithLabelValues(event, metrics.OutcomeDropped).Inc()
		d.logger.Warn("event dropped",
			zap.String("socket_id", conn.ID()),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}
	metrics.Notifications.WithLabelValues(event, metrics.OutcomeDelivered).Inc()
}
