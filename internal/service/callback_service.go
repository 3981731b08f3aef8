package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/monitoring"
	"github.com/entradalibre/ticketing/internal/queue"
)

// CallbackService applies payment provider notifications to orders,
// seats and tickets.  Every transition runs in one transaction, so a
// crash mid-notification leaves no partial state and provider
// redelivery is the retry mechanism.
type CallbackService struct {
	tx        TxRunner
	catalog   Catalog
	seats     SeatInventory
	orders    OrderStore
	payments  PaymentStore
	tickets   TicketStore
	publisher EventPublisher
	clock     clock.Clock
}

// NewCallbackService wires a CallbackService from its collaborators.
// The publisher may be nil when async processing is disabled.
func NewCallbackService(tx TxRunner, catalog Catalog, seats SeatInventory, orders OrderStore, payments PaymentStore, tickets TicketStore, publisher EventPublisher, clk clock.Clock) *CallbackService {
	return &CallbackService{
		tx: tx, catalog: catalog, seats: seats, orders: orders,
		payments: payments, tickets: tickets, publisher: publisher, clock: clk,
	}
}

// Notification is the distilled provider webhook payload.
type Notification struct {
	ExternalTransactionID string
	Status                string
	Raw                   []byte
}

// HandleNotification processes one provider notification.  Returning
// nil means the webhook is acknowledged; unrecognized statuses and
// duplicate deliveries are acknowledged without any transition.
func (s *CallbackService) HandleNotification(ctx context.Context, n Notification) error {
	if n.ExternalTransactionID == "" || n.Status == "" {
		monitoring.TrackWebhook("error")
		return ErrInvalidPayload
	}
	orderID, err := pagotic.ParseExternalTransactionID(n.ExternalTransactionID)
	if err != nil {
		monitoring.TrackWebhook("error")
		return ErrInvalidPayload
	}

	var (
		paidEvent *queue.OrderPaidEvent
		outcome   string
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		order, items, err := s.orders.GetWithItems(ctx, orderID)
		if err != nil {
			return err
		}

		switch normalizeStatus(n.Status) {
		case model.PaymentApproved:
			if err := s.payments.Upsert(ctx, order.ID, n.ExternalTransactionID, model.PaymentApproved, n.Raw); err != nil {
				return err
			}
			switch order.Status {
			case model.OrderPaid:
				// Redelivery of a notification we already applied.
				outcome = "duplicate"
				return nil
			case model.OrderCancelled:
				// Money moved for an order we gave up on.  Never
				// resurrect the order (its seats may be resold);
				// flag for manual refund instead.
				log.Printf("RECONCILE: approved payment for cancelled order %d (external id %s)",
					order.ID, n.ExternalTransactionID)
				outcome = "reconcile_alert"
				return nil
			}
			ev, err := s.confirm(ctx, order, items)
			if err != nil {
				return err
			}
			paidEvent = ev
			outcome = "approved"
			return nil

		case model.PaymentRejected:
			if err := s.payments.Upsert(ctx, order.ID, n.ExternalTransactionID, model.PaymentRejected, n.Raw); err != nil {
				return err
			}
			if order.Status != model.OrderPending {
				outcome = "duplicate"
				return nil
			}
			if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderCancelled); err != nil {
				return err
			}
			if err := s.seats.Release(ctx, seatIDs(items)); err != nil {
				return err
			}
			outcome = "rejected"
			return nil

		default:
			// Keep the provider's view on record but change nothing.
			if err := s.payments.Upsert(ctx, order.ID, n.ExternalTransactionID, strings.ToUpper(n.Status), n.Raw); err != nil {
				return err
			}
			log.Printf("webhook: order %d notified with unrecognized status %q, ignoring", order.ID, n.Status)
			outcome = "unknown"
			return nil
		}
	})
	if err != nil {
		monitoring.TrackWebhook("error")
		return err
	}
	monitoring.TrackWebhook(outcome)

	// Only after commit: downstream consumers must never observe an
	// order the database does not yet show as paid.
	if paidEvent != nil && s.publisher != nil {
		if err := s.publisher.PublishOrderPaid(ctx, *paidEvent); err != nil {
			log.Printf("webhook: publish order.paid for order %d failed: %v", paidEvent.OrderID, err)
		}
	}
	return nil
}

// confirm transitions a pending order to PAID: seats sold, tickets
// issued exactly once per item, event flipped to SOLD_OUT at capacity.
func (s *CallbackService) confirm(ctx context.Context, order model.Order, items []model.OrderItem) (*queue.OrderPaidEvent, error) {
	if err := s.seats.MarkSold(ctx, seatIDs(items)); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderPaid); err != nil {
		return nil, err
	}

	labels, err := s.seats.LabelsByID(ctx, seatIDs(items))
	if err != nil {
		return nil, err
	}
	ev := &queue.OrderPaidEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		EventID:    order.EventID,
		SessionID:  order.SessionID,
		TotalCents: order.TotalCents,
		PaidAt:     s.clock.Now().Format(time.RFC3339),
	}
	issued := 0
	for _, it := range items {
		exists, err := s.tickets.ExistsForItem(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		t := model.Ticket{
			OrderItemID: it.ID,
			SeatID:      it.SeatID,
			EventID:     order.EventID,
			SessionID:   order.SessionID,
			UserID:      order.UserID,
			QRCode:      "ticket:" + uuid.NewString(),
		}
		if err := s.tickets.Create(ctx, &t); err != nil {
			return nil, err
		}
		issued++
		ev.Tickets = append(ev.Tickets, queue.TicketInfo{
			TicketID:  t.ID,
			SeatLabel: labels[t.SeatID],
			QRCode:    t.QRCode,
		})
	}
	monitoring.TrackTicketsIssued(issued)

	event, err := s.catalog.GetByID(ctx, order.EventID)
	if err != nil {
		return nil, err
	}
	sold, err := s.seats.CountSold(ctx, order.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == model.EventOpen && uint32(sold) >= event.Capacity {
		if err := s.catalog.SetStatus(ctx, order.EventID, model.EventSoldOut); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

// normalizeStatus folds the provider's status vocabulary into the two
// transitions the engine acts on.  Anything else maps to the empty
// string and is acknowledged without effect.
func normalizeStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved", "paid", "accredited":
		return model.PaymentApproved
	case "rejected", "cancelled", "canceled", "expired":
		return model.PaymentRejected
	default:
		return ""
	}
}

func seatIDs(items []model.OrderItem) []uint64 {
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.SeatID)
	}
	return ids
}
