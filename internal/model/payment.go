package model

import "time"

// Payment status values mirror the provider's vocabulary.  They are the
// trigger for order and seat transitions, not a state machine of their
// own: the order status is authoritative.
const (
	PaymentPending  = "PENDING"
	PaymentApproved = "APPROVED"
	PaymentRejected = "REJECTED"
)

// Payment is the one-to-one provider-side record for an order.  The raw
// provider payload is retained verbatim for audit and reconciliation.
//
// Fields:
//  ID                    – primary key identifier.
//  OrderID               – order this payment belongs to (unique).
//  ExternalTransactionID – id sent to the provider ("order-<id>-<ts>").
//  Status                – provider status as last notified.
//  RawResponse           – raw JSON of the last provider payload.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last notification applied.
type Payment struct {
	ID                    uint64    // payments.id
	OrderID               uint64    // payments.order_id
	ExternalTransactionID string    // payments.external_transaction_id
	Status                string    // payments.status
	RawResponse           []byte    // payments.raw_response (JSON)
	CreatedAt             time.Time // payments.created_at
	UpdatedAt             time.Time // payments.updated_at
}
