package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/entradalibre/ticketing/internal/model"
)

// EventRepo is the read-mostly catalog of events, sessions and ticket
// categories.  The engine only looks data up here; the single write is
// the SOLD_OUT status flip driven by the payment callback.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID fetches an event.  Returns ErrEventNotFound when the id
// matches no row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var (
		e           model.Event
		publishedAt sql.NullTime
	)
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, slug, venue_name, city, capacity, status, seat_template, published_at, created_at, updated_at
		 FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Slug, &e.VenueName, &e.City, &e.Capacity, &e.Status,
			&e.SeatTemplate, &publishedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}
	return e, nil
}

// GetSession fetches a session and verifies it belongs to the event.
func (r *EventRepo) GetSession(ctx context.Context, eventID, sessionID uint64) (model.Session, error) {
	var s model.Session
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, event_id, date, venue_name, city, created_at
		 FROM sessions WHERE id = ? AND event_id = ?`, sessionID, eventID).
		Scan(&s.ID, &s.EventID, &s.Date, &s.VenueName, &s.City, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrSessionNotFound
	}
	return s, err
}

// CategoriesByEvent lists every ticket category of an event.
func (r *EventRepo) CategoriesByEvent(ctx context.Context, eventID uint64) ([]model.TicketCategory, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, event_id, title, price_cents FROM ticket_categories WHERE event_id = ? ORDER BY id`,
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []model.TicketCategory
	for rows.Next() {
		var c model.TicketCategory
		if err := rows.Scan(&c.ID, &c.EventID, &c.Title, &c.PriceCents); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// SetStatus updates the event status.  Used to flip events to SOLD_OUT
// once capacity is reached.
func (r *EventRepo) SetStatus(ctx context.Context, eventID uint64, status string) error {
	_, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE events SET status = ? WHERE id = ?`, status, eventID)
	return err
}
