// Package monitoring defines the Prometheus metrics exported at /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created with seats reserved",
		},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_conflicts_total",
			Help: "Order attempts lost to a concurrent reservation",
		},
	)

	webhookNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_notifications_total",
			Help: "Payment provider notifications by outcome",
		},
		[]string{"outcome"},
	)

	gatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Payment gateway calls by result",
		},
		[]string{"result"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets created after payment confirmation",
		},
	)

	ordersExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_expired_total",
			Help: "Pending orders cancelled by the expiry sweeper",
		},
	)
)

// TrackOrderCreated counts a successful order creation.
func TrackOrderCreated() { ordersCreated.Inc() }

// TrackSeatConflict counts an order attempt rejected because another
// buyer held at least one requested seat.
func TrackSeatConflict() { seatConflicts.Inc() }

// TrackWebhook counts a processed provider notification.  Outcome is one
// of "approved", "rejected", "duplicate", "reconcile_alert", "unknown"
// or "error".
func TrackWebhook(outcome string) { webhookNotifications.WithLabelValues(outcome).Inc() }

// TrackGatewayRequest counts one gateway call.  Result is "ok",
// "timeout" or "error".
func TrackGatewayRequest(result string) { gatewayRequests.WithLabelValues(result).Inc() }

// TrackTicketsIssued counts n newly issued tickets.
func TrackTicketsIssued(n int) { ticketsIssued.Add(float64(n)) }

// TrackOrdersExpired counts n pending orders cancelled for staleness.
func TrackOrdersExpired(n int) { ordersExpired.Add(float64(n)) }
