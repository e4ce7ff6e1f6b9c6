package payment

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
)

// Sweeper cancels gateway orders that sat pending past TTL and puts their
// reserved stock back. A confirmation racing the sweep is safe: whoever
// transitions first wins and is the only one to act.
type Sweeper struct {
	Orders   orders.Store
	Ledger   inventory.Ledger
	TTL      time.Duration
	Interval time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Printf("sweep: %v", err)
			}
			if n > 0 {
				log.Printf("sweep: cancelled %d stale pending orders", n)
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	stale, err := s.Orders.ListStalePending(ctx, time.Now().UTC().Add(-s.TTL))
	if err != nil {
		return 0, err
	}

	n := 0
	for _, o := range stale {
		applied, err := s.Orders.Transition(ctx, o.ID, orders.StatusCancelled)
		if err != nil {
			log.Printf("sweep: cancel order %s: %v", o.ID, err)
			continue
		}
		if !applied {
			continue // confirmed or cancelled since we listed it
		}
		for _, it := range o.Items {
			if err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
				log.Printf("sweep: release order=%s product=%s qty=%d: %v", o.ID, it.ProductID, it.Qty, err)
			}
		}
		n++
	}
	return n, nil
}
