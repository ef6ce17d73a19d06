// Package events publishes booking and task lifecycle events to RabbitMQ so
// downstream consumers (citizen notifications, reporting) can react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const appID = "zeromonos"

// Routing keys.
const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	TaskAssigned         = "task.assigned"
	TaskCompleted        = "task.completed"
)

// Publisher emits JSON events under a routing key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// PublishJSON drops v and never fails.
func (Nop) PublishJSON(context.Context, string, any) error { return nil }

// AMQPPublisher publishes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON marshals v and publishes it under key. A failed publish is
// returned to the caller wrapped with the routing key.
func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", key, err)
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, message(key, body, time.Now().UTC())); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// message wraps an event body as a persistent delivery. Type carries the
// routing key so consumers bound with wildcards can still tell events apart.
func message(key string, body []byte, at time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         key,
		AppId:        appID,
		Timestamp:    at,
		Body:         body,
	}
}

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
