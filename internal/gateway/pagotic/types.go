// Package pagotic is the adapter for the PagoTIC payment provider.  It
// translates orders into provider payment-creation requests, handles the
// provider's bearer-token credential exchange, and normalizes provider
// failures into typed errors the rest of the application can act on.
package pagotic

import (
	"errors"
	"fmt"
)

// ErrMissingBuyerInfo is returned when the buyer lacks one of the fields
// the provider requires for payer identification (name, email, DNI).
var ErrMissingBuyerInfo = errors.New("buyer is missing name, email or dni")

// ErrGatewayTimeout is returned when the provider does not answer within
// the configured deadline.  Callers can use it to decide retry policy
// separately from hard failures.
var ErrGatewayTimeout = errors.New("payment gateway timeout")

// Error wraps a non-2xx provider response.  The body is kept for
// logging; it must never be surfaced to buyers.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pagotic: provider returned %d", e.StatusCode)
}

// PaymentRequest is the provider's payment-creation payload.
type PaymentRequest struct {
	Type                  string          `json:"type"`
	ReturnURL             string          `json:"return_url"`
	BackURL               string          `json:"back_url"`
	NotificationURL       string          `json:"notification_url"`
	ExternalTransactionID string          `json:"external_transaction_id"`
	DueDate               string          `json:"due_date"`
	LastDueDate           string          `json:"last_due_date"`
	CurrencyID            string          `json:"currency_id"`
	CollectorID           string          `json:"collector_id,omitempty"`
	Details               []Detail        `json:"details"`
	Payer                 Payer           `json:"payer"`
	PaymentMethods        []PaymentMethod `json:"payment_methods"`
}

// Detail is a single charge line within a payment.
type Detail struct {
	ConceptID          string  `json:"concept_id"`
	ConceptDescription string  `json:"concept_description"`
	Amount             float64 `json:"amount"`
	ExternalReference  string  `json:"external_reference"`
}

// Payer identifies the buyer to the provider.
type Payer struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Identification Identification `json:"identification"`
}

// Identification is the payer's national identity document.
type Identification struct {
	Type    string `json:"type"`
	Number  string `json:"number"`
	Country string `json:"country"`
}

// PaymentMethod selects a media payment channel on the provider side.
type PaymentMethod struct {
	MediaPaymentID int `json:"media_payment_id"`
}

// PaymentResponse is the normalized provider answer to payment creation
// or lookup.  FormURL is the redirect handle the buyer is sent to.
type PaymentResponse struct {
	ID      string `json:"id"`
	FormURL string `json:"form_url"`
	Status  string `json:"status"`
}
