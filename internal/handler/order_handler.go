package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/service"
)

// OrderHandler exposes order creation and lookup endpoints.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

type createOrderReq struct {
	EventID        uint64   `json:"event_id"`
	SessionID      uint64   `json:"session_id"`
	SelectedLabels []string `json:"selected_labels"`
}

type orderItemPart struct {
	ID         uint64 `json:"id"`
	SeatID     uint64 `json:"seat_id"`
	PriceCents uint32 `json:"price_cents"`
}

type orderResp struct {
	OrderID    uint64          `json:"order_id"`
	EventID    uint64          `json:"event_id"`
	SessionID  uint64          `json:"session_id"`
	Status     string          `json:"status"`
	TotalCents uint32          `json:"total_cents"`
	Items      []orderItemPart `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toOrderResp(o model.Order, items []model.OrderItem) orderResp {
	resp := orderResp{
		OrderID:    o.ID,
		EventID:    o.EventID,
		SessionID:  o.SessionID,
		Status:     o.Status,
		TotalCents: o.TotalCents,
		Items:      make([]orderItemPart, 0, len(items)),
		CreatedAt:  o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemPart{ID: it.ID, SeatID: it.SeatID, PriceCents: it.PriceCents})
	}
	return resp
}

// Create handles POST /v1/orders: reserve the selected seats and open a
// PENDING order.  Contended seats produce a 409 naming the labels lost.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 || req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and session_id required"})
	}

	order, items, err := h.Orders.CreateOrder(c.Request().Context(), service.CreateOrderInput{
		UserID:    uid,
		EventID:   req.EventID,
		SessionID: req.SessionID,
		Labels:    req.SelectedLabels,
	})
	if err != nil {
		var conflict *repository.SeatsUnavailableError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":             "seats unavailable",
				"unavailable_seats": conflict.Labels,
			})
		case errors.Is(err, service.ErrInvalidSelection),
			errors.Is(err, service.ErrMalformedLabel),
			errors.Is(err, service.ErrCategoryNotFound),
			errors.Is(err, service.ErrZeroPriceSeat):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrEventNotOpen):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrEventNotFound),
			errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	return c.JSON(http.StatusCreated, toOrderResp(order, items))
}

// Get handles GET /v1/orders/:id, scoped to the authenticated user.
func (h *OrderHandler) Get(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	order, items, err := h.Orders.GetOrderForUser(c.Request().Context(), orderID, uid)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load order failed"})
	}
	return c.JSON(http.StatusOK, toOrderResp(order, items))
}

// List handles GET /v1/my-orders.
func (h *OrderHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListOrdersForUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list orders failed"})
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}
