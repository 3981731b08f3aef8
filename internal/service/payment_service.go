package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/monitoring"
)

// PaymentService initiates provider checkouts for pending orders.
type PaymentService struct {
	orders  OrderStore
	seats   SeatInventory
	users   UserStore
	payment PaymentStore
	gateway Gateway
	urls    pagotic.URLs
	clock   clock.Clock
}

// NewPaymentService wires a PaymentService from its collaborators.  The
// urls are the buyer-facing redirect and webhook endpoints sent to the
// provider with every payment.
func NewPaymentService(orders OrderStore, seats SeatInventory, users UserStore, payment PaymentStore, gw Gateway, urls pagotic.URLs, clk clock.Clock) *PaymentService {
	return &PaymentService{orders: orders, seats: seats, users: users, payment: payment, gateway: gw, urls: urls, clock: clk}
}

// Initiation is the handle returned to the buyer: the provider payment
// id plus the hosted checkout URL to redirect to.
type Initiation struct {
	PaymentID   string
	RedirectURL string
}

// InitiatePayment creates a provider payment for a pending order owned
// by the given user and records the PENDING payment row.  Retrying after
// a failed attempt issues a fresh external transaction id, so abandoned
// provider payments never block the order.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID, userID uint64) (Initiation, error) {
	order, items, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return Initiation{}, err
	}
	if order.Status != model.OrderPending {
		return Initiation{}, ErrOrderNotPending
	}
	buyer, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Initiation{}, err
	}
	seatIDs := make([]uint64, 0, len(items))
	for _, it := range items {
		seatIDs = append(seatIDs, it.SeatID)
	}
	labels, err := s.seats.LabelsByID(ctx, seatIDs)
	if err != nil {
		return Initiation{}, err
	}

	req, err := pagotic.BuildPayment(&order, items,
		labels,
		pagotic.Buyer{Name: buyer.Name, Email: buyer.Email, DNI: buyer.DNI},
		s.urls, s.clock.Now())
	if err != nil {
		return Initiation{}, err
	}

	resp, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		if errors.Is(err, pagotic.ErrGatewayTimeout) {
			monitoring.TrackGatewayRequest("timeout")
		} else {
			monitoring.TrackGatewayRequest("error")
		}
		log.Printf("payment: gateway rejected order %d: %v", orderID, err)
		return Initiation{}, err
	}
	monitoring.TrackGatewayRequest("ok")

	raw, _ := json.Marshal(resp)
	if err := s.payment.Upsert(ctx, order.ID, req.ExternalTransactionID, model.PaymentPending, raw); err != nil {
		return Initiation{}, err
	}
	return Initiation{PaymentID: resp.ID, RedirectURL: resp.FormURL}, nil
}
