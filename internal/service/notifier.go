package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/hopon-app/hopon-backend/internal/queue"
)

// Notifier delivers notification events to users.  Implementations are
// fire-and-forget: a delivery failure must never fail or roll back the
// request that triggered it, so Notify returns nothing.  Handlers call
// it only after their transaction has committed.
type Notifier interface {
	Notify(ctx context.Context, ev q.NotificationEvent)
}

// QueueNotifier publishes notification events to the durable
// notification.events RabbitMQ queue.  Messages are persistent so they
// survive broker restarts; at-least-once is the strongest guarantee,
// and lost messages are acceptable by contract.
type QueueNotifier struct {
	url string
}

// NewQueueNotifier builds a QueueNotifier against the broker resolved
// from the environment.
func NewQueueNotifier() *QueueNotifier {
	return &QueueNotifier{url: q.BrokerURL()}
}

// Notify publishes one event.  Any error is logged and swallowed.
func (n *QueueNotifier) Notify(ctx context.Context, ev q.NotificationEvent) {
	if ev.SentAt == "" {
		ev.SentAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := n.publish(ctx, ev); err != nil {
		log.Printf("rabbitmq: notification publish failed: %v", err)
	}
}

func (n *QueueNotifier) publish(ctx context.Context, ev q.NotificationEvent) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.NotificationQueueName, // name
		true,                    // durable
		false,                   // autoDelete
		false,                   // exclusive
		false,                   // noWait
		nil,                     // args
	); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	return ch.PublishWithContext(ctx,
		"",                      // default exchange
		q.NotificationQueueName, // routing key = queue name
		false,                   // mandatory
		false,                   // immediate
		pub,
	)
}
