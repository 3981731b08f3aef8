package pagotic

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/entradalibre/ticketing/internal/model"
)

// Payments are issued in Argentina local time.
var paymentZone = time.FixedZone("-03:00", -3*60*60)

const (
	dueAfter     = 30 * time.Minute
	lastDueAfter = 60 * time.Minute
)

// Buyer is the purchaser information attached to a payment request.
// All three fields are required by the provider.
type Buyer struct {
	Name  string
	Email string
	DNI   string
}

// URLs carries the redirect and notification endpoints for a payment.
type URLs struct {
	Return       string
	Back         string
	Notification string
}

// ExternalTransactionID builds the id that ties a provider payment back
// to an order.  The timestamp suffix keeps retried initiations distinct
// on the provider side while the order id stays recoverable.
func ExternalTransactionID(orderID uint64, now time.Time) string {
	return fmt.Sprintf("order-%d-%d", orderID, now.UnixMilli())
}

// ParseExternalTransactionID recovers the order id from an external
// transaction id of the form "order-<id>-<millis>".
func ParseExternalTransactionID(s string) (uint64, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != "order" {
		return 0, fmt.Errorf("pagotic: malformed external transaction id %q", s)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("pagotic: malformed external transaction id %q", s)
	}
	return id, nil
}

// BuildPayment assembles the provider request for an order.  One detail
// line is emitted per seat so the provider statement itemizes the
// purchase.  Returns ErrMissingBuyerInfo when the purchaser record lacks
// any field the provider requires.
func BuildPayment(order *model.Order, items []model.OrderItem, labels map[uint64]string, buyer Buyer, urls URLs, now time.Time) (*PaymentRequest, error) {
	if buyer.Name == "" || buyer.Email == "" || buyer.DNI == "" {
		return nil, ErrMissingBuyerInfo
	}
	local := now.In(paymentZone)
	req := &PaymentRequest{
		Type:                  "online",
		ReturnURL:             urls.Return,
		BackURL:               urls.Back,
		NotificationURL:       urls.Notification,
		ExternalTransactionID: ExternalTransactionID(order.ID, now),
		DueDate:               local.Add(dueAfter).Format(dueDateLayout),
		LastDueDate:           local.Add(lastDueAfter).Format(dueDateLayout),
		Payer: Payer{
			Name:  buyer.Name,
			Email: buyer.Email,
			Identification: Identification{
				Type:    "DNI_ARG",
				Number:  buyer.DNI,
				Country: "ARG",
			},
		},
		PaymentMethods: []PaymentMethod{{MediaPaymentID: 1}},
	}
	for _, it := range items {
		req.Details = append(req.Details, Detail{
			ConceptID:          "ticket",
			ConceptDescription: fmt.Sprintf("Entrada %s", labels[it.SeatID]),
			Amount:             centsToAmount(it.PriceCents),
			ExternalReference:  strconv.FormatUint(it.ID, 10),
		})
	}
	return req, nil
}

// dueDateLayout renders timestamps the way the provider expects, with
// an explicit numeric offset.
const dueDateLayout = "2006-01-02T15:04:05.000-07:00"

func centsToAmount(cents uint32) float64 {
	return decimal.New(int64(cents), -2).InexactFloat64()
}
