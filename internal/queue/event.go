// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// OrderPaidQueue is the durable queue carrying order.paid events.
const OrderPaidQueue = "order.paid"

// OrderPaidEvent is published after a payment notification transitions
// an order to PAID and the database transaction has committed.  It
// carries enough information for downstream consumers to render ticket
// assets and notify the buyer without querying the primary database.
type OrderPaidEvent struct {
	OrderID    uint64       `json:"order_id"`
	UserID     uint64       `json:"user_id"`
	EventID    uint64       `json:"event_id"`
	SessionID  uint64       `json:"session_id"`
	TotalCents uint32       `json:"total_cents"`
	Tickets    []TicketInfo `json:"tickets"`
	PaidAt     string       `json:"paid_at"`
}

// TicketInfo identifies one issued ticket within an OrderPaidEvent.
type TicketInfo struct {
	TicketID  uint64 `json:"ticket_id"`
	SeatLabel string `json:"seat_label"`
	QRCode    string `json:"qr_code"`
}
