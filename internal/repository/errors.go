// Package repository implements data access over MySQL.  Sentinel error
// values defined here let handlers and services distinguish failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEventNotFound is returned when an event id matches no row.
var ErrEventNotFound = errors.New("event not found")

// ErrSessionNotFound is returned when a session id matches no row for
// the given event.
var ErrSessionNotFound = errors.New("session not found")

// ErrOrderNotFound is returned when an order id matches no row, or when
// an ownership-scoped lookup finds no order for the calling user.
var ErrOrderNotFound = errors.New("order not found")

// ErrTicketNotFound is returned when a QR code matches no ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTicketUsed is returned when a ticket has already been redeemed.
var ErrTicketUsed = errors.New("ticket already used")

// ErrEmailExists is returned when registration hits the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")

// SeatsUnavailableError reports which requested labels were already
// reserved or sold.  The labels are surfaced verbatim to the buyer so the
// client can re-render availability.
type SeatsUnavailableError struct {
	Labels []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Labels, ", "))
}
