package service

import "errors"

// Workflow errors.  Handlers translate these into HTTP status codes;
// anything not listed here is an internal failure and becomes a 500.
var (
	// ErrInvalidSelection rejects an order with zero, more than five,
	// or repeated seat labels.
	ErrInvalidSelection = errors.New("selection must contain 1 to 5 distinct seat labels")

	// ErrMalformedLabel rejects a seat label that does not parse or
	// does not exist in the event's seat map.
	ErrMalformedLabel = errors.New("malformed seat label")

	// ErrCategoryNotFound rejects a seat whose sector has no ticket
	// category bound to it.
	ErrCategoryNotFound = errors.New("no ticket category for seat")

	// ErrZeroPriceSeat rejects a seat priced at zero.  Zero means "not
	// for sale", never "free".
	ErrZeroPriceSeat = errors.New("seat is not for sale")

	// ErrEventNotOpen rejects orders against events that are sold out
	// or finished.
	ErrEventNotOpen = errors.New("event is not open for sale")

	// ErrOrderNotPending rejects payment initiation for orders that are
	// already paid or cancelled.
	ErrOrderNotPending = errors.New("order is not pending")

	// ErrInvalidPayload rejects provider notifications missing the
	// external transaction id or the status.
	ErrInvalidPayload = errors.New("invalid notification payload")
)
