package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/skip2/go-qrcode"
)

// TicketAssetStore records the path of a generated ticket asset.
type TicketAssetStore interface {
	SetAssetURL(ctx context.Context, ticketID uint64, url string) error
}

// Consumer listens on the order.paid queue and generates the QR asset
// for every ticket of a paid order.  Asset generation is idempotent per
// ticket: redelivery rewrites the same file and the same URL.
type Consumer struct {
	url      string
	assetDir string
	tickets  TicketAssetStore
}

// NewConsumer returns a consumer that writes assets under assetDir.
func NewConsumer(url, assetDir string, tickets TicketAssetStore) *Consumer {
	return &Consumer{url: url, assetDir: assetDir, tickets: tickets}
}

// Start connects to RabbitMQ, declares the order.paid queue (durable),
// and starts consuming messages.  It runs a reconnect loop with capped
// backoff and keeps running until the process exits; processing errors
// are logged and the offending message rejected so the server continues
// operating.
func (c *Consumer) Start() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("order-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("order-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("order-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(OrderPaidQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(OrderPaidQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			log.Printf("order-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev OrderPaidEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx := context.Background()
	for _, t := range ev.Tickets {
		url, err := c.writeAsset(t)
		if err != nil {
			return fmt.Errorf("ticket %d asset: %w", t.TicketID, err)
		}
		if err := c.tickets.SetAssetURL(ctx, t.TicketID, url); err != nil {
			return fmt.Errorf("ticket %d asset url: %w", t.TicketID, err)
		}
	}
	log.Printf("order-consumer: order %d processed, %d ticket assets generated", ev.OrderID, len(ev.Tickets))
	return nil
}

// qrSizePx is the edge length of generated ticket QR images.
const qrSizePx = 256

// writeAsset renders the ticket's QR code as a PNG and returns the
// public path it is served under.  The image encodes the qr_code value
// that the validation endpoint accepts, so a venue scanner reads the
// image and posts its content back.
func (c *Consumer) writeAsset(t TicketInfo) (string, error) {
	if err := os.MkdirAll(c.assetDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir assets: %w", err)
	}
	name := fmt.Sprintf("ticket-%d.png", t.TicketID)
	fpath := filepath.Join(c.assetDir, name)
	if err := qrcode.WriteFile(t.QRCode, qrcode.Medium, qrSizePx, fpath); err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "/assets/" + name, nil
}
