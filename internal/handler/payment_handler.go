package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entradalibre/ticketing/internal/gateway/pagotic"
	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/service"
)

// PaymentHandler exposes payment initiation for pending orders.
type PaymentHandler struct {
	Payments *service.PaymentService
}

func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

// Initiate handles POST /v1/orders/:id/payment: create the provider
// payment and hand the checkout URL back to the buyer.  Gateway failures
// stay opaque: a 502 or 504 with no provider detail.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	init, err := h.Payments.InitiatePayment(c.Request().Context(), orderID, uid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotPending):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
		case errors.Is(err, pagotic.ErrMissingBuyerInfo):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "complete name, email and DNI before paying"})
		case errors.Is(err, pagotic.ErrGatewayTimeout):
			return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "payment provider timed out"})
		}
		var gerr *pagotic.Error
		if errors.As(err, &gerr) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider rejected the request"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "initiate payment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":   init.PaymentID,
		"redirect_url": init.RedirectURL,
	})
}
