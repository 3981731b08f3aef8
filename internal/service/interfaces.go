// Package service implements the order, payment and callback workflows
// on top of narrow store interfaces, keeping the business rules testable
// without a database.
package service

import (
	"context"
	"time"

	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/queue"
)

// TxRunner runs a function within one database transaction.  Nested
// calls join the outer transaction, so a service can compose several
// store operations atomically.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Catalog is the read-mostly event lookup the engine depends on, plus
// the single status flip to SOLD_OUT.
type Catalog interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	GetSession(ctx context.Context, eventID, sessionID uint64) (model.Session, error)
	CategoriesByEvent(ctx context.Context, eventID uint64) ([]model.TicketCategory, error)
	SetStatus(ctx context.Context, eventID uint64, status string) error
}

// SeatInventory is the seat store.  Reserve is all-or-nothing and
// reports conflicts as *repository.SeatsUnavailableError.
type SeatInventory interface {
	Reserve(ctx context.Context, seats []model.Seat) ([]model.Seat, error)
	MarkSold(ctx context.Context, seatIDs []uint64) error
	Release(ctx context.Context, seatIDs []uint64) error
	LabelsByID(ctx context.Context, seatIDs []uint64) (map[uint64]string, error)
	CountSold(ctx context.Context, eventID uint64) (int, error)
}

// OrderStore persists orders and their items.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	CreateItems(ctx context.Context, items []model.OrderItem) error
	GetWithItems(ctx context.Context, orderID uint64) (model.Order, []model.OrderItem, error)
	GetForUser(ctx context.Context, orderID, userID uint64) (model.Order, []model.OrderItem, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint64, status string) error
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// PaymentStore keeps the one-to-one provider record per order.
type PaymentStore interface {
	Upsert(ctx context.Context, orderID uint64, externalID, status string, raw []byte) error
	GetByOrder(ctx context.Context, orderID uint64) (model.Payment, error)
}

// TicketStore issues and looks up tickets.
type TicketStore interface {
	ExistsForItem(ctx context.Context, orderItemID uint64) (bool, error)
	Create(ctx context.Context, t *model.Ticket) error
	ListByOrder(ctx context.Context, orderID uint64) ([]model.Ticket, error)
	Redeem(ctx context.Context, qrCode string, now time.Time) (model.Ticket, error)
}

// UserStore resolves the buyer record needed for payment initiation.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Gateway is the payment provider client.
type Gateway interface {
	CreatePayment(ctx context.Context, req *pagotic.PaymentRequest) (*pagotic.PaymentResponse, error)
}

// EventPublisher publishes domain events after commit.  Failures must
// not affect the calling workflow.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event queue.OrderPaidEvent) error
}
