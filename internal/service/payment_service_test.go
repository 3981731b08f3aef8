package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/repository"
)

type fakeGateway struct {
	lastReq *pagotic.PaymentRequest
	resp    *pagotic.PaymentResponse
	err     error
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req *pagotic.PaymentRequest) (*pagotic.PaymentResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestPaymentService_InitiatePayment(t *testing.T) {
	t.Parallel()

	urls := pagotic.URLs{
		Return:       "https://tickets.example.com/checkout/success",
		Back:         "https://tickets.example.com/checkout/back",
		Notification: "https://tickets.example.com/api/webhooks/pagotic",
	}

	makeFixture := func(t *testing.T) (*PaymentService, *fakeGateway, *fakePayments, model.Order, *fakeUsers) {
		t.Helper()
		catalog := newTestCatalog()
		inv := newFakeInventory()
		orders := newFakeOrders(testNow)
		orderSvc := NewOrderService(fakeTx{}, catalog, inv, orders)
		order, _, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"A1-1", "B1-2"},
		})
		require.NoError(t, err)

		users := &fakeUsers{users: map[uint64]model.User{
			7: {ID: 7, Name: "Ana Pérez", Email: "ana@example.com", DNI: "30123456"},
		}}
		gw := &fakeGateway{resp: &pagotic.PaymentResponse{ID: "pt-1", FormURL: "https://pagotic.example/form/pt-1", Status: "pending"}}
		payments := newFakePayments()
		svc := NewPaymentService(orders, inv, users, payments, gw, urls, clock.NewFixed(testNow))
		return svc, gw, payments, order, users
	}

	t.Run("creates the provider payment and records it", func(t *testing.T) {
		svc, gw, payments, order, _ := makeFixture(t)

		init, err := svc.InitiatePayment(context.Background(), order.ID, 7)
		require.NoError(t, err)

		assert.Equal(t, "pt-1", init.PaymentID)
		assert.Equal(t, "https://pagotic.example/form/pt-1", init.RedirectURL)

		require.NotNil(t, gw.lastReq)
		gotID, err := pagotic.ParseExternalTransactionID(gw.lastReq.ExternalTransactionID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, gotID)
		assert.Equal(t, urls.Notification, gw.lastReq.NotificationURL)
		require.Len(t, gw.lastReq.Details, 2)
		assert.InDelta(t, 5000.0, gw.lastReq.Details[0].Amount, 0.001)
		assert.Equal(t, "30123456", gw.lastReq.Payer.Identification.Number)

		p, err := payments.GetByOrder(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, p.Status)
		assert.Equal(t, gw.lastReq.ExternalTransactionID, p.ExternalTransactionID)
	})

	t.Run("requires complete payer identification", func(t *testing.T) {
		svc, _, payments, order, users := makeFixture(t)
		u := users.users[7]
		u.DNI = ""
		users.users[7] = u

		_, err := svc.InitiatePayment(context.Background(), order.ID, 7)
		assert.ErrorIs(t, err, pagotic.ErrMissingBuyerInfo)
		_, err = payments.GetByOrder(context.Background(), order.ID)
		assert.Error(t, err)
	})

	t.Run("only the owner can pay and only while pending", func(t *testing.T) {
		svc, _, _, order, _ := makeFixture(t)
		ctx := context.Background()

		_, err := svc.InitiatePayment(ctx, order.ID, 8)
		assert.ErrorIs(t, err, repository.ErrOrderNotFound)

		svc2, _, _, order2, _ := makeFixture(t)
		_, err = svc2.InitiatePayment(ctx, order2.ID, 7)
		require.NoError(t, err)
		// Settle the order and try again.
		require.NoError(t, svc2.orders.UpdateStatus(ctx, order2.ID, model.OrderPaid))
		_, err = svc2.InitiatePayment(ctx, order2.ID, 7)
		assert.ErrorIs(t, err, ErrOrderNotPending)
	})

	t.Run("gateway failure leaves no payment record", func(t *testing.T) {
		svc, gw, payments, order, _ := makeFixture(t)
		gw.err = pagotic.ErrGatewayTimeout

		_, err := svc.InitiatePayment(context.Background(), order.ID, 7)
		assert.ErrorIs(t, err, pagotic.ErrGatewayTimeout)
		_, err = payments.GetByOrder(context.Background(), order.ID)
		assert.Error(t, err)
	})
}
