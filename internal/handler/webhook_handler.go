package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/service"
)

// NotificationProcessor applies one provider notification to the order
// state.
type NotificationProcessor interface {
	HandleNotification(ctx context.Context, n service.Notification) error
}

// WebhookHandler receives payment provider notifications.  The provider
// retries on any 5xx, so transient failures return 500 and rely on
// redelivery; everything the processor acknowledged returns 200.
type WebhookHandler struct {
	Callbacks NotificationProcessor
}

func NewWebhookHandler(cb NotificationProcessor) *WebhookHandler {
	return &WebhookHandler{Callbacks: cb}
}

// pagoticNotification is the subset of the provider payload the engine
// acts on; the full body is stored verbatim on the payment record.
type pagoticNotification struct {
	ExternalTransactionID string `json:"external_transaction_id"`
	Status                string `json:"status"`
}

// Notify handles POST /api/webhooks/pagotic.  The body is read raw
// before decoding so the untouched payload can be persisted for audit.
func (h *WebhookHandler) Notify(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	var n pagoticNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}

	err = h.Callbacks.HandleNotification(c.Request().Context(), service.Notification{
		ExternalTransactionID: n.ExternalTransactionID,
		Status:                n.Status,
		Raw:                   body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown order"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
