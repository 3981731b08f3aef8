package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes domain events to RabbitMQ.  Errors are logged and
// returned so callers can ignore failures without interrupting the main
// request flow; a lost event is recovered by reconciliation, never by
// blocking the buyer.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher that dials the given AMQP URL per
// publish.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishOrderPaid publishes an OrderPaidEvent to the order.paid queue.
// The queue is declared durable and messages are marked persistent so
// they survive broker restarts.
func (p *Publisher) PublishOrderPaid(ctx context.Context, event OrderPaidEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent).
	if _, err := ch.QueueDeclare(
		OrderPaidQueue, // name
		true,           // durable
		false,          // autoDelete
		false,          // exclusive
		false,          // noWait
		nil,            // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		OrderPaidQueue, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
