package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"steel-spark/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes order events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   zerolog.Logger
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := newAMQPPublisher(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch channel, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With().Str("component", "events").Str("exchange", exchange).Logger(),
	}, nil
}

// Publish sends the event as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, event model.OrderEvent) error {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Occurred,
		ContentType:  "application/json",
		MessageId:    event.OrderID,
		Type:         event.Type,
		Body:         body,
	}

	key := RoutingKey(event.Type)
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		p.logger.Error().Err(err).
			Str("routing_key", key).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug().
		Str("routing_key", key).
		Str("order_id", event.OrderID).
		Msg("order event published")
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
