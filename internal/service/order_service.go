package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/monitoring"
	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/seatmap"
)

// maxSeatsPerOrder caps one purchase attempt.
const maxSeatsPerOrder = 5

// OrderService creates orders with their seats reserved atomically and
// serves order lookups.
type OrderService struct {
	tx      TxRunner
	catalog Catalog
	seats   SeatInventory
	orders  OrderStore
}

// NewOrderService wires an OrderService from its collaborators.
func NewOrderService(tx TxRunner, catalog Catalog, seats SeatInventory, orders OrderStore) *OrderService {
	return &OrderService{tx: tx, catalog: catalog, seats: seats, orders: orders}
}

// CreateOrderInput is a buyer's purchase attempt: up to five seat labels
// in one session of one event.
type CreateOrderInput struct {
	UserID    uint64
	EventID   uint64
	SessionID uint64
	Labels    []string
}

// CreateOrder validates the selection, reserves every requested seat and
// creates the PENDING order in a single transaction.  When any seat is
// already held the whole attempt fails with
// *repository.SeatsUnavailableError naming the contended labels; no
// partial reservation survives.  The order total is captured from the
// category prices at this moment and never recomputed.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (model.Order, []model.OrderItem, error) {
	if len(in.Labels) < 1 || len(in.Labels) > maxSeatsPerOrder {
		return model.Order{}, nil, ErrInvalidSelection
	}

	event, err := s.catalog.GetByID(ctx, in.EventID)
	if err != nil {
		return model.Order{}, nil, err
	}
	if event.Status != model.EventOpen {
		return model.Order{}, nil, ErrEventNotOpen
	}
	session, err := s.catalog.GetSession(ctx, in.EventID, in.SessionID)
	if err != nil {
		return model.Order{}, nil, err
	}
	template, err := seatmap.ByName(event.SeatTemplate)
	if err != nil {
		return model.Order{}, nil, err
	}
	categories, err := s.catalog.CategoriesByEvent(ctx, in.EventID)
	if err != nil {
		return model.Order{}, nil, err
	}
	priced := seatmap.Merge(template, categories)

	// Resolve every label before touching storage so a bad selection
	// never reserves anything.  Seat identity is the canonical label, so
	// the duplicate check runs after resolution: "A1-1" and "a1-1" are
	// the same seat, not two.
	var (
		seats []model.Seat
		total uint32
	)
	prices := make(map[string]uint32, len(in.Labels))
	seen := make(map[string]struct{}, len(in.Labels))
	for _, raw := range in.Labels {
		resolved, err := template.Resolve(raw)
		if err != nil {
			return model.Order{}, nil, fmt.Errorf("%w: %q", ErrMalformedLabel, raw)
		}
		if _, dup := seen[resolved.Label]; dup {
			return model.Order{}, nil, ErrInvalidSelection
		}
		seen[resolved.Label] = struct{}{}
		binding, ok := priced.Binding(resolved.Row)
		if !ok || binding.TicketCategoryID == 0 {
			return model.Order{}, nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, raw)
		}
		if binding.PriceCents == 0 {
			return model.Order{}, nil, fmt.Errorf("%w: %q", ErrZeroPriceSeat, raw)
		}
		seats = append(seats, model.Seat{
			EventID:          in.EventID,
			SessionID:        session.ID,
			Label:            resolved.Label,
			Row:              resolved.Row,
			Number:           uint32(resolved.Number),
			Status:           model.SeatReserved,
			UserID:           in.UserID,
			TicketCategoryID: binding.TicketCategoryID,
		})
		prices[resolved.Label] = binding.PriceCents
		total += binding.PriceCents
	}

	var (
		order model.Order
		items []model.OrderItem
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		reserved, err := s.seats.Reserve(ctx, seats)
		if err != nil {
			return err
		}
		order = model.Order{
			UserID:     in.UserID,
			EventID:    in.EventID,
			SessionID:  session.ID,
			TotalCents: total,
			Status:     model.OrderPending,
		}
		if err := s.orders.Create(ctx, &order); err != nil {
			return err
		}
		items = items[:0]
		for _, seat := range reserved {
			items = append(items, model.OrderItem{
				OrderID:    order.ID,
				SeatID:     seat.ID,
				PriceCents: prices[seat.Label],
			})
		}
		return s.orders.CreateItems(ctx, items)
	})
	if err != nil {
		var conflict *repository.SeatsUnavailableError
		if errors.As(err, &conflict) {
			monitoring.TrackSeatConflict()
		}
		return model.Order{}, nil, err
	}
	monitoring.TrackOrderCreated()
	return order, items, nil
}

// GetOrderForUser returns an order with its items when it belongs to the
// given user.  Foreign orders surface as not-found.
func (s *OrderService) GetOrderForUser(ctx context.Context, orderID, userID uint64) (model.Order, []model.OrderItem, error) {
	return s.orders.GetForUser(ctx, orderID, userID)
}

// ListOrdersForUser returns all orders of a user, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
