package model

import "time"

// Order status values.  PENDING orders hold reserved seats while payment
// is outstanding; PAID and CANCELLED are terminal.
const (
	OrderPending   = "PENDING"
	OrderPaid      = "PAID"
	OrderCancelled = "CANCELLED"
)

// Order records a buyer's purchase attempt for a set of seats in one
// session.  The total is captured from the category prices at creation
// time and never recomputed, so later price changes do not affect
// existing orders.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – buyer who created the order.
//  EventID    – event the order belongs to.
//  SessionID  – session the order belongs to.
//  TotalCents – captured total price in cents for all seats.
//  Status     – PENDING, PAID or CANCELLED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last status change.
type Order struct {
	ID         uint64    // orders.id
	UserID     uint64    // orders.user_id
	EventID    uint64    // orders.event_id
	SessionID  uint64    // orders.session_id
	TotalCents uint32    // orders.total_cents
	Status     string    // orders.status
	CreatedAt  time.Time // orders.created_at
	UpdatedAt  time.Time // orders.updated_at
}

// OrderItem links an order to exactly one reserved seat and records the
// price that seat contributed to the order total.
//
// Fields:
//  ID         – primary key identifier.
//  OrderID    – order this item belongs to.
//  SeatID     – the single seat this item holds.
//  PriceCents – captured category price for the seat in cents.
//  CreatedAt  – creation timestamp.
type OrderItem struct {
	ID         uint64    // order_items.id
	OrderID    uint64    // order_items.order_id
	SeatID     uint64    // order_items.seat_id
	PriceCents uint32    // order_items.price_cents
	CreatedAt  time.Time // order_items.created_at
}
