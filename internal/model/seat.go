package model

import "time"

// Seat status values.  There is deliberately no AVAILABLE row state: a
// seat that has never been reserved simply does not exist in the table
// (lazy materialization), and absence must be read as available.
const (
	SeatReserved = "RESERVED"
	SeatSold     = "SOLD"
)

// Seat is the inventory record for one seat of one session of one event.
// Rows are created on first reservation attempt; the unique key on
// (event_id, session_id, label) is what prevents double-selling under
// concurrent order creation.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event the seat belongs to.
//  SessionID        – session the seat belongs to.
//  Label            – buyer-facing identifier, "<row>-<number>" (e.g. "A1-7").
//  Row              – sector-and-row code, e.g. "A1".
//  Number           – 1-based seat number within the row.
//  Status           – RESERVED or SOLD.
//  UserID           – buyer currently holding the seat.
//  TicketCategoryID – category the seat was priced from at reservation time.
//  CreatedAt        – when the seat was first reserved.
//  UpdatedAt        – last status change.
type Seat struct {
	ID               uint64    // seats.id
	EventID          uint64    // seats.event_id
	SessionID        uint64    // seats.session_id
	Label            string    // seats.label
	Row              string    // seats.row
	Number           uint32    // seats.number
	Status           string    // seats.status
	UserID           uint64    // seats.user_id
	TicketCategoryID uint64    // seats.ticket_category_id
	CreatedAt        time.Time // seats.created_at
	UpdatedAt        time.Time // seats.updated_at
}
