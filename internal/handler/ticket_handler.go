package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/repository"
)

// TicketHandler exposes ticket listing for buyers and redemption for
// venue staff.
type TicketHandler struct {
	Tickets *repository.TicketRepo
	Orders  *repository.OrderRepo
	Clock   clock.Clock
}

func NewTicketHandler(tickets *repository.TicketRepo, orders *repository.OrderRepo, clk clock.Clock) *TicketHandler {
	return &TicketHandler{Tickets: tickets, Orders: orders, Clock: clk}
}

type validateReq struct {
	QRCode string `json:"qr_code"`
}

type ticketView struct {
	ID        uint64     `json:"id"`
	SeatID    uint64     `json:"seat_id"`
	EventID   uint64     `json:"event_id"`
	SessionID uint64     `json:"session_id"`
	QRCode    string     `json:"qr_code"`
	QRCodeURL string     `json:"qr_code_url,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// ListForOrder handles GET /v1/orders/:id/tickets, scoped to the order's
// owner.
func (h *TicketHandler) ListForOrder(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	if _, _, err := h.Orders.GetForUser(ctx, orderID, uid); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load order failed"})
	}
	tickets, err := h.Tickets.ListByOrder(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tickets failed"})
	}
	views := make([]ticketView, 0, len(tickets))
	for _, t := range tickets {
		views = append(views, ticketView{
			ID: t.ID, SeatID: t.SeatID, EventID: t.EventID, SessionID: t.SessionID,
			QRCode: t.QRCode, QRCodeURL: t.QRCodeURL, UsedAt: t.UsedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": views})
}

// Validate handles POST /v1/tickets/validate: scan a QR code at the
// venue and mark the ticket used.  A second scan of the same code gets a
// 409 so staff see the double entry attempt.
func (h *TicketHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.QRCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code required"})
	}

	t, err := h.Tickets.Redeem(c.Request().Context(), strings.TrimSpace(req.QRCode), h.Clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, repository.ErrTicketUsed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":      true,
		"ticket_id":  t.ID,
		"event_id":   t.EventID,
		"session_id": t.SessionID,
		"seat_id":    t.SeatID,
		"used_at":    t.UsedAt,
	})
}
