package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/repository"
)

var testNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		event: model.Event{
			ID:           1,
			Name:         "Noche de Tango",
			Capacity:     80,
			Status:       model.EventOpen,
			SeatTemplate: "teatro-principal",
		},
		session: model.Session{ID: 10, EventID: 1, Date: testNow.Add(48 * time.Hour)},
		categories: []model.TicketCategory{
			{ID: 1, EventID: 1, Title: "Platea A", PriceCents: 500000},
			{ID: 2, EventID: 1, Title: "Platea B", PriceCents: 350000},
			{ID: 3, EventID: 1, Title: "Pullman", PriceCents: 0},
		},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Parallel()

	makeSvc := func() (*OrderService, *fakeInventory, *fakeOrders, *fakeCatalog) {
		catalog := newTestCatalog()
		inv := newFakeInventory()
		orders := newFakeOrders(testNow)
		svc := NewOrderService(fakeTx{}, catalog, inv, orders)
		return svc, inv, orders, catalog
	}

	t.Run("reserves seats and captures the total", func(t *testing.T) {
		svc, inv, _, _ := makeSvc()

		order, items, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10,
			Labels: []string{"A1-1", "B2-3"},
		})
		require.NoError(t, err)

		assert.Equal(t, model.OrderPending, order.Status)
		assert.Equal(t, uint32(850000), order.TotalCents)
		require.Len(t, items, 2)
		assert.Equal(t, uint32(500000), items[0].PriceCents)
		assert.Equal(t, uint32(350000), items[1].PriceCents)
		assert.Equal(t, 2, inv.held())

		seat, ok := inv.seat(items[0].SeatID)
		require.True(t, ok)
		assert.Equal(t, model.SeatReserved, seat.Status)
		assert.Equal(t, uint64(7), seat.UserID)
	})

	t.Run("total stays captured after a price change", func(t *testing.T) {
		svc, _, orders, catalog := makeSvc()

		order, _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"A1-1"},
		})
		require.NoError(t, err)
		require.Equal(t, uint32(500000), order.TotalCents)

		catalog.setPrice(1, 999900)

		stored, _, err := orders.GetWithItems(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, uint32(500000), stored.TotalCents)
	})

	t.Run("conflict names the contended labels and reserves nothing", func(t *testing.T) {
		svc, inv, orders, _ := makeSvc()

		_, _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"A1-1", "A1-2"},
		})
		require.NoError(t, err)
		require.Equal(t, 2, inv.held())

		_, _, err = svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 8, EventID: 1, SessionID: 10, Labels: []string{"A1-2", "A1-3"},
		})
		var conflict *repository.SeatsUnavailableError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"A1-2"}, conflict.Labels)

		// All-or-nothing: the free seat A1-3 was not taken and no second
		// order exists.
		assert.Equal(t, 2, inv.held())
		assert.Equal(t, 1, orders.count())
	})

	t.Run("concurrent buyers get exactly one winner per seat", func(t *testing.T) {
		svc, inv, orders, _ := makeSvc()

		const buyers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func(userID uint64) {
				defer wg.Done()
				_, _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
					UserID: userID, EventID: 1, SessionID: 10, Labels: []string{"B1-5"},
				})
				mu.Lock()
				defer mu.Unlock()
				var conflict *repository.SeatsUnavailableError
				switch {
				case err == nil:
					wins++
				case errors.As(err, &conflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(uint64(i + 1))
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, buyers-1, conflicts)
		assert.Equal(t, 1, inv.held())
		assert.Equal(t, 1, orders.count())
	})

	t.Run("validates the selection", func(t *testing.T) {
		svc, inv, _, _ := makeSvc()
		ctx := context.Background()

		cases := []struct {
			name   string
			labels []string
			want   error
		}{
			{"empty", nil, ErrInvalidSelection},
			{"too many", []string{"A1-1", "A1-2", "A1-3", "A1-4", "A1-5", "A1-6"}, ErrInvalidSelection},
			{"duplicate", []string{"A1-1", "A1-1"}, ErrInvalidSelection},
			{"duplicate differing only in case", []string{"A1-1", "a1-1"}, ErrInvalidSelection},
			{"malformed", []string{"A1"}, ErrMalformedLabel},
			{"unknown row", []string{"Z9-1"}, ErrMalformedLabel},
			{"zero price", []string{"P1-1"}, ErrZeroPriceSeat},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, _, err := svc.CreateOrder(ctx, CreateOrderInput{
					UserID: 7, EventID: 1, SessionID: 10, Labels: tc.labels,
				})
				assert.ErrorIs(t, err, tc.want)
			})
		}
		assert.Equal(t, 0, inv.held())
	})

	t.Run("seat identity ignores label case", func(t *testing.T) {
		svc, inv, orders, _ := makeSvc()

		// The stored label is the canonical spelling regardless of input.
		order, items, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"a1-1"},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, uint32(500000), order.TotalCents)
		seat, ok := inv.seat(items[0].SeatID)
		require.True(t, ok)
		assert.Equal(t, "A1-1", seat.Label)

		// A second buyer spelling the same seat differently loses the
		// race, and the conflict names the canonical label.
		_, _, err = svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 8, EventID: 1, SessionID: 10, Labels: []string{"A1-1"},
		})
		var conflict *repository.SeatsUnavailableError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"A1-1"}, conflict.Labels)
		assert.Equal(t, 1, inv.held())
		assert.Equal(t, 1, orders.count())
	})

	t.Run("rejects orders on closed events", func(t *testing.T) {
		svc, _, _, catalog := makeSvc()
		catalog.event.Status = model.EventSoldOut

		_, _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"A1-1"},
		})
		assert.ErrorIs(t, err, ErrEventNotOpen)
	})

	t.Run("rejects unknown event and session", func(t *testing.T) {
		svc, _, _, _ := makeSvc()
		ctx := context.Background()

		_, _, err := svc.CreateOrder(ctx, CreateOrderInput{
			UserID: 7, EventID: 99, SessionID: 10, Labels: []string{"A1-1"},
		})
		assert.ErrorIs(t, err, repository.ErrEventNotFound)

		_, _, err = svc.CreateOrder(ctx, CreateOrderInput{
			UserID: 7, EventID: 1, SessionID: 99, Labels: []string{"A1-1"},
		})
		assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	})
}

func TestOrderService_GetOrderForUser(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog()
	inv := newFakeInventory()
	orders := newFakeOrders(testNow)
	svc := NewOrderService(fakeTx{}, catalog, inv, orders)

	order, _, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID: 7, EventID: 1, SessionID: 10, Labels: []string{"A1-1"},
	})
	require.NoError(t, err)

	_, _, err = svc.GetOrderForUser(context.Background(), order.ID, 7)
	assert.NoError(t, err)

	// Foreign orders look like missing orders so ownership is not leaked.
	_, _, err = svc.GetOrderForUser(context.Background(), order.ID, 8)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
