// Package events publishes order lifecycle events to a message broker.
package events

import (
	"context"

	"steel-spark/internal/model"
)

// Event types carried in model.OrderEvent.Type.
const (
	TypeCreated       = "created"
	TypeStatusUpdated = "status_updated"
	TypePriceUpdated  = "price_updated"
)

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
	Close() error
}

// NopPublisher discards every event. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.OrderEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// RoutingKey returns the topic routing key for an event type.
func RoutingKey(eventType string) string {
	return "order." + eventType
}
