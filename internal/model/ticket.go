package model

import "time"

// Ticket is issued exactly once per order item after payment is
// confirmed.  QRCode is the value encoded into the ticket's QR image and
// is what venue scanners present for redemption.  UsedAt is a one-way
// transition: once set it is never cleared.
//
// Fields:
//  ID          – primary key identifier.
//  OrderItemID – order item this ticket fulfils (unique).
//  SeatID      – seat the ticket grants access to.
//  EventID     – event the ticket is valid for.
//  SessionID   – session the ticket is valid for.
//  UserID      – buyer the ticket was issued to.
//  QRCode      – scannable identifier, "ticket:<uuid>".
//  QRCodeURL   – path of the generated QR asset (filled asynchronously).
//  UsedAt      – when the ticket was redeemed at the venue (nullable).
//  CreatedAt   – issuance timestamp.
type Ticket struct {
	ID          uint64     // tickets.id
	OrderItemID uint64     // tickets.order_item_id
	SeatID      uint64     // tickets.seat_id
	EventID     uint64     // tickets.event_id
	SessionID   uint64     // tickets.session_id
	UserID      uint64     // tickets.user_id
	QRCode      string     // tickets.qr_code
	QRCodeURL   string     // tickets.qr_code_url
	UsedAt      *time.Time // tickets.used_at (nullable)
	CreatedAt   time.Time  // tickets.created_at
}
