package model

import "time"

// EventStatus enumerates the lifecycle states of an event.  OPEN events
// accept orders; SOLD_OUT events have no seats left; FINISHED events are
// closed for sales entirely.
const (
	EventOpen     = "OPEN"
	EventSoldOut  = "SOLD_OUT"
	EventFinished = "FINISHED"
)

// Event represents a published event as stored in the `events` table.
// The SeatTemplate column names the static seat-map geometry the event is
// bound to; templates are shared across events by name, not by foreign key.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the event.
//  Slug         – unique URL-friendly identifier.
//  VenueName    – name of the venue hosting the event.
//  City         – city where the event takes place.
//  Capacity     – total number of sellable seats.
//  Status       – OPEN, SOLD_OUT or FINISHED.
//  SeatTemplate – name of the seat-map template bound to this event.
//  PublishedAt  – when the event became visible.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Event struct {
	ID           uint64     // events.id
	Name         string     // events.name
	Slug         string     // events.slug
	VenueName    string     // events.venue_name
	City         string     // events.city
	Capacity     uint32     // events.capacity
	Status       string     // events.status
	SeatTemplate string     // events.seat_template
	PublishedAt  *time.Time // events.published_at (nullable)
	CreatedAt    time.Time  // events.created_at
	UpdatedAt    time.Time  // events.updated_at
}

// Session is a single dated occurrence of an event.  Seat inventory is
// tracked per (event, session) pair, so the same physical seat can be
// sold once for every session.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event this session belongs to.
//  Date      – when the session starts.
//  VenueName – venue for this particular session.
//  City      – city for this particular session.
//  CreatedAt – creation timestamp.
type Session struct {
	ID        uint64    // sessions.id
	EventID   uint64    // sessions.event_id
	Date      time.Time // sessions.date
	VenueName string    // sessions.venue_name
	City      string    // sessions.city
	CreatedAt time.Time // sessions.created_at
}

// TicketCategory is a priced class of seats belonging to one event.  A
// category is bound to a sector of the event's seat-map template by
// matching its title against the sector name (case-insensitive).  A
// category whose title matches no sector is a configuration error and
// its seats are never sellable.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event this category belongs to.
//  Title      – category title, e.g. "Platea A" or "Pullman".
//  PriceCents – ticket price in cents at the current moment.  Orders
//               capture this value at creation time and never re-read it.
type TicketCategory struct {
	ID         uint64 // ticket_categories.id
	EventID    uint64 // ticket_categories.event_id
	Title      string // ticket_categories.title
	PriceCents uint32 // ticket_categories.price_cents
}
