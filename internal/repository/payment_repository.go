package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/entradalibre/ticketing/internal/model"
)

// PaymentRepo persists the one-to-one provider record per order.  Every
// provider notification overwrites status and raw payload, keeping the
// latest provider view alongside the authoritative order status.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Upsert inserts the payment row for an order or, when one exists,
// updates its status and raw payload.  Relies on the unique key on
// order_id.
func (r *PaymentRepo) Upsert(ctx context.Context, orderID uint64, externalID, status string, raw []byte) error {
	_, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO payments (order_id, external_transaction_id, status, raw_response)
		 VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE external_transaction_id = VALUES(external_transaction_id),
		                         status = VALUES(status), raw_response = VALUES(raw_response)`,
		orderID, externalID, status, raw)
	return err
}

// GetByOrder fetches the payment record for an order, or sql.ErrNoRows
// wrapped as ErrOrderNotFound when none exists.
func (r *PaymentRepo) GetByOrder(ctx context.Context, orderID uint64) (model.Payment, error) {
	var p model.Payment
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, order_id, external_transaction_id, status, raw_response, created_at, updated_at
		 FROM payments WHERE order_id = ?`, orderID).
		Scan(&p.ID, &p.OrderID, &p.ExternalTransactionID, &p.Status, &p.RawResponse, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrOrderNotFound
	}
	return p, err
}
