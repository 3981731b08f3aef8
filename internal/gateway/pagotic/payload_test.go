package pagotic

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradalibre/ticketing/internal/model"
)

func TestExternalTransactionID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	id := ExternalTransactionID(123, now)
	assert.Equal(t, fmt.Sprintf("order-123-%d", now.UnixMilli()), id)

	orderID, err := ParseExternalTransactionID(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), orderID)

	for _, bad := range []string{"", "order-123", "payment-123-456", "order-abc-456", "order-0-456", "order-1-2-3"} {
		_, err := ParseExternalTransactionID(bad)
		assert.Error(t, err, "id %q", bad)
	}
}

func TestBuildPayment(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC) // 20:00 in -03:00
	order := model.Order{ID: 55, UserID: 7, EventID: 1, SessionID: 10, TotalCents: 850000}
	items := []model.OrderItem{
		{ID: 101, OrderID: 55, SeatID: 1, PriceCents: 500000},
		{ID: 102, OrderID: 55, SeatID: 2, PriceCents: 350000},
	}
	labels := map[uint64]string{1: "A1-1", 2: "B1-2"}
	buyer := Buyer{Name: "Ana Pérez", Email: "ana@example.com", DNI: "30123456"}
	urls := URLs{
		Return:       "https://t.example/ok",
		Back:         "https://t.example/back",
		Notification: "https://t.example/api/webhooks/pagotic",
	}

	t.Run("assembles the provider request", func(t *testing.T) {
		req, err := BuildPayment(&order, items, labels, buyer, urls, now)
		require.NoError(t, err)

		assert.Equal(t, "online", req.Type)
		assert.Equal(t, urls.Notification, req.NotificationURL)
		assert.Equal(t, fmt.Sprintf("order-55-%d", now.UnixMilli()), req.ExternalTransactionID)

		// Due dates are rendered in Argentina local time: 30 and 60
		// minutes after 20:00 -03:00.
		assert.Equal(t, "2026-03-14T20:30:00.000-03:00", req.DueDate)
		assert.Equal(t, "2026-03-14T21:00:00.000-03:00", req.LastDueDate)

		require.Len(t, req.Details, 2)
		assert.InDelta(t, 5000.0, req.Details[0].Amount, 0.0001)
		assert.InDelta(t, 3500.0, req.Details[1].Amount, 0.0001)
		assert.Contains(t, req.Details[0].ConceptDescription, "A1-1")
		assert.Equal(t, "101", req.Details[0].ExternalReference)

		assert.Equal(t, "Ana Pérez", req.Payer.Name)
		assert.Equal(t, "DNI_ARG", req.Payer.Identification.Type)
		assert.Equal(t, "30123456", req.Payer.Identification.Number)
		assert.Equal(t, "ARG", req.Payer.Identification.Country)
	})

	t.Run("requires name, email and DNI", func(t *testing.T) {
		for _, b := range []Buyer{
			{Email: "a@b.c", DNI: "1"},
			{Name: "A", DNI: "1"},
			{Name: "A", Email: "a@b.c"},
		} {
			_, err := BuildPayment(&order, items, labels, b, urls, now)
			assert.ErrorIs(t, err, ErrMissingBuyerInfo)
		}
	})
}
