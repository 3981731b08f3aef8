package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/repository"
	"github.com/entradalibre/ticketing/internal/seatmap"
)

// AvailabilityHandler serves the public seat-status listing for a
// session.  Seats with no inventory row are reported AVAILABLE; the
// price comes from merging the event's seat template with its ticket
// categories.
type AvailabilityHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
}

func NewAvailabilityHandler(events *repository.EventRepo, seats *repository.SeatRepo) *AvailabilityHandler {
	return &AvailabilityHandler{Events: events, Seats: seats}
}

type seatView struct {
	Label      string `json:"label"`
	Sector     string `json:"sector"`
	Status     string `json:"status"` // AVAILABLE | RESERVED | SOLD
	PriceCents uint32 `json:"price_cents"`
	ForSale    bool   `json:"for_sale"`
}

// SessionSeats handles GET /v1/events/:id/sessions/:sid/seats.
func (h *AvailabilityHandler) SessionSeats(c echo.Context) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	sessionID, ok := paramID(c, "sid")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if _, err := h.Events.GetSession(ctx, eventID, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	template, err := seatmap.ByName(event.SeatTemplate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event has no seat map"})
	}
	categories, err := h.Events.CategoriesByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load categories failed"})
	}
	priced := seatmap.Merge(template, categories)

	taken, err := h.Seats.AllForSession(ctx, eventID, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
	}
	statusByLabel := make(map[string]string, len(taken))
	for _, s := range taken {
		statusByLabel[s.Label] = s.Status
	}

	views := make([]seatView, 0)
	for _, label := range priced.Labels() {
		resolved, err := template.Resolve(label)
		if err != nil {
			continue
		}
		binding, _ := priced.Binding(resolved.Row)
		status, materialized := statusByLabel[label]
		if !materialized {
			status = "AVAILABLE"
		}
		views = append(views, seatView{
			Label:      label,
			Sector:     resolved.SectorName,
			Status:     status,
			PriceCents: binding.PriceCents,
			ForSale:    binding.PriceCents > 0 && event.Status == model.EventOpen,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":   eventID,
		"session_id": sessionID,
		"status":     event.Status,
		"seats":      views,
	})
}
