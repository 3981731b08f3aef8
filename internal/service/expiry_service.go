package service

import (
	"context"
	"log"
	"time"

	"github.com/entradalibre/ticketing/internal/clock"
	"github.com/entradalibre/ticketing/internal/model"
	"github.com/entradalibre/ticketing/internal/monitoring"
)

// ExpirySweeper cancels PENDING orders whose payment window has passed
// and returns their seats to the pool.  Without it an abandoned checkout
// would hold seats forever, since the provider only notifies on payments
// that actually happened.
type ExpirySweeper struct {
	tx       TxRunner
	orders   OrderStore
	seats    SeatInventory
	clock    clock.Clock
	ttl      time.Duration
	interval time.Duration
}

// NewExpirySweeper builds a sweeper cancelling orders older than ttl,
// checking every interval.
func NewExpirySweeper(tx TxRunner, orders OrderStore, seats SeatInventory, clk clock.Clock, ttl, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{tx: tx, orders: orders, seats: seats, clock: clk, ttl: ttl, interval: interval}
}

// Run sweeps on a ticker until the context is cancelled.  Intended to be
// started as a goroutine from main.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				log.Printf("expiry: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("expiry: cancelled %d stale orders", n)
			}
		}
	}
}

// Sweep cancels every expired pending order in its own transaction and
// returns how many were cancelled.  Per-order transactions keep one
// contended order from blocking the rest of the batch.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.ttl)
	ids, err := s.orders.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, id := range ids {
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			order, items, err := s.orders.GetWithItems(ctx, id)
			if err != nil {
				return err
			}
			// A webhook may have raced the sweep and settled the order.
			if order.Status != model.OrderPending {
				return nil
			}
			if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderCancelled); err != nil {
				return err
			}
			cancelled++
			return s.seats.Release(ctx, seatIDs(items))
		})
		if err != nil {
			log.Printf("expiry: cancelling order %d failed: %v", id, err)
		}
	}
	monitoring.TrackOrdersExpired(cancelled)
	return cancelled, nil
}
