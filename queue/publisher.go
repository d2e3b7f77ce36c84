// Package queue publishes committed domain events to RabbitMQ for systems
// outside the restaurant floor (accounting, CRM).
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

// Routed event types. Each is published to a durable queue of the same name.
var routed = map[string]bool{
	services.EventSessionSettled: true,
	services.EventSessionWarning: true,
	services.EventSessionEnded:   true,
}

type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Notify implements services.Notifier. Events outside the routed set are
// ignored.
func (p *Publisher) Notify(ctx context.Context, e services.Event) error {
	if !routed[e.Type] {
		return nil
	}

	pub, err := buildPublishing(e)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(e.Type, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", e.Type, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	utils.InfoLogger.Printf("Published %s for session %s", e.Type, e.SessionID)
	return nil
}

func buildPublishing(e services.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts.UTC(),
		Type:         e.Type,
		MessageId:    fmt.Sprintf("%s:%s:%d", e.Type, e.SessionID, ts.UnixNano()),
		Body:         body,
	}, nil
}
