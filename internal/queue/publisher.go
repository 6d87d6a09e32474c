package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher holds one broker connection for a batch of publishes.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares IngestQueue (durable, idempotent).
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(IngestQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

// Publish sends r as a persistent JSON message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, r IngestRequest) error {
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now().UTC()
	}
	body, err := r.Encode()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    r.RequestedAt,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", IngestQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}
