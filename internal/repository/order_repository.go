package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/entradalibre/ticketing/internal/model"
)

// OrderRepo provides persistence for orders and their items.  An order
// exclusively owns its items; each item owns exactly one seat
// reservation.  All timestamps are stored in UTC.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// WithTx runs fn within a single transaction.  Nested calls join the
// outer transaction.
func (r *OrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

// Create inserts an order and populates its generated id and timestamps.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO orders (user_id, event_id, session_id, total_cents, status) VALUES (?, ?, ?, ?, ?)`,
		o.UserID, o.EventID, o.SessionID, o.TotalCents, o.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return q(ctx, r.db).QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM orders WHERE id = ?`, o.ID).
		Scan(&o.CreatedAt, &o.UpdatedAt)
}

// CreateItems inserts all order items in one statement.  Passing an
// empty slice has no effect.
func (r *OrderRepo) CreateItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, seat_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, it.OrderID, it.SeatID, it.PriceCents)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// GetWithItems loads an order together with its items.  Returns
// ErrOrderNotFound when the id matches no row.
func (r *OrderRepo) GetWithItems(ctx context.Context, orderID uint64) (model.Order, []model.OrderItem, error) {
	var o model.Order
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, event_id, session_id, total_cents, status, created_at, updated_at
		 FROM orders WHERE id = ?`, orderID).
		Scan(&o.ID, &o.UserID, &o.EventID, &o.SessionID, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, nil, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, nil, err
	}
	items, err := r.itemsByOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, nil, err
	}
	return o, items, nil
}

// GetForUser loads an order only when it belongs to the given user.
// Missing and foreign orders are both reported as ErrOrderNotFound so
// ownership is not leaked.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, []model.OrderItem, error) {
	o, items, err := r.GetWithItems(ctx, orderID)
	if err != nil {
		return model.Order{}, nil, err
	}
	if o.UserID != userID {
		return model.Order{}, nil, ErrOrderNotFound
	}
	return o, items, nil
}

// ListByUser returns all orders of a user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, user_id, event_id, session_id, total_cents, status, created_at, updated_at
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.EventID, &o.SessionID, &o.TotalCents,
			&o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus sets the order status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
	_, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
	return err
}

// ListExpiredPending returns the ids of PENDING orders created before
// the cutoff.  The expiry sweeper cancels these and releases their
// seats.
func (r *OrderRepo) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id FROM orders WHERE status = ? AND created_at < ?`,
		model.OrderPending, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *OrderRepo) itemsByOrder(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, order_id, seat_id, price_cents, created_at FROM order_items WHERE order_id = ? ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.SeatID, &it.PriceCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
