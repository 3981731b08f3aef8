package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/entradalibre/ticketing/internal/model"
)

// TicketRepo persists issued tickets.  The unique key on order_item_id
// backs the exactly-once issuance guarantee: webhook redelivery finds
// the existing ticket and skips creation.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// ExistsForItem reports whether a ticket was already issued for the
// order item.
func (r *TicketRepo) ExistsForItem(ctx context.Context, orderItemID uint64) (bool, error) {
	var n int
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE order_item_id = ?`, orderItemID).Scan(&n)
	return n > 0, err
}

// Create inserts a ticket and populates its generated id.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO tickets (order_item_id, seat_id, event_id, session_id, user_id, qr_code, qr_code_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.OrderItemID, t.SeatID, t.EventID, t.SessionID, t.UserID, t.QRCode, t.QRCodeURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// ListByOrder returns all tickets issued for an order's items.
func (r *TicketRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT t.id, t.order_item_id, t.seat_id, t.event_id, t.session_id, t.user_id, t.qr_code, t.qr_code_url, t.used_at, t.created_at
		 FROM tickets t JOIN order_items oi ON oi.id = t.order_item_id
		 WHERE oi.order_id = ? ORDER BY t.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SetAssetURL records the generated QR asset path for a ticket.  The
// queue consumer calls this after rendering; re-running it for the same
// ticket just rewrites the same path.
func (r *TicketRepo) SetAssetURL(ctx context.Context, ticketID uint64, url string) error {
	_, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE tickets SET qr_code_url = ? WHERE id = ?`, url, ticketID)
	return err
}

// Redeem marks the ticket identified by qrCode as used.  The transition
// is one-way: a second redemption fails with ErrTicketUsed, an unknown
// code with ErrTicketNotFound.
func (r *TicketRepo) Redeem(ctx context.Context, qrCode string, now time.Time) (model.Ticket, error) {
	var t model.Ticket
	err := withTx(ctx, r.db, func(ctx context.Context) error {
		row := q(ctx, r.db).QueryRowContext(ctx,
			`SELECT id, order_item_id, seat_id, event_id, session_id, user_id, qr_code, qr_code_url, used_at, created_at
			 FROM tickets WHERE qr_code = ? FOR UPDATE`, qrCode)
		var err error
		t, err = scanTicket(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTicketNotFound
		}
		if err != nil {
			return err
		}
		if t.UsedAt != nil {
			return ErrTicketUsed
		}
		used := now.UTC()
		if _, err := q(ctx, r.db).ExecContext(ctx,
			`UPDATE tickets SET used_at = ? WHERE id = ?`, used, t.ID); err != nil {
			return err
		}
		t.UsedAt = &used
		return nil
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (model.Ticket, error) {
	var (
		t      model.Ticket
		usedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.OrderItemID, &t.SeatID, &t.EventID, &t.SessionID, &t.UserID,
		&t.QRCode, &t.QRCodeURL, &usedAt, &t.CreatedAt)
	if err != nil {
		return model.Ticket{}, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return t, nil
}
