package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-retail-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
	"github.com/ariefcatur/go-retail-checkout.git/internal/redisx"
)

// Confirmer finalizes gateway orders from payment.result signals.
// Signals are at-least-once and may arrive out of order: the first terminal
// transition wins, everything after is a no-op.
type Confirmer struct {
	Orders      orders.Store
	Ledger      inventory.Ledger
	Redis       *redis.Client // optional; nil skips event dedup
	Secret      string
	ServiceName string
}

// HandleResult is wired as the consumer handler for TopicPaymentResult.
func (c *Confirmer) HandleResult(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	var cancel bool
	switch env.EventType {
	case orders.EventPaymentSucceeded:
		cancel = false
	case orders.EventPaymentFailed, orders.EventPaymentCancelled:
		cancel = true
	default:
		return nil // not ours
	}

	if c.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, c.ServiceName, env.EventID)
		if seen, _ := redisx.Exists(ctx, c.Redis, dkey); seen {
			return nil
		}
		_ = c.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentResultPayload](env.Payload)
	if err != nil {
		return err
	}

	o, err := c.Orders.Get(ctx, p.OrderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		log.Printf("payment result for unknown order %s, dropped", p.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	// The signal must prove it belongs to this order's payment session.
	if p.SessionID == "" || p.SessionID != o.SessionID ||
		!VerifySignature(c.Secret, p.Signature, p.OrderID, p.SessionID, env.EventType) {
		log.Printf("payment result for order %s failed verification, dropped", p.OrderID)
		return nil
	}

	if orders.Terminal(o.Status) {
		return nil
	}

	if !cancel {
		applied, err := c.Orders.Transition(ctx, o.ID, orders.StatusConfirmed)
		if err != nil {
			return err
		}
		if applied {
			log.Printf("order %s confirmed (session %s)", o.ID, o.SessionID)
			c.cacheStatus(ctx, o.ID, orders.StatusConfirmed)
		}
		return nil
	}

	applied, err := c.Orders.Transition(ctx, o.ID, orders.StatusCancelled)
	if err != nil {
		return err
	}
	if !applied {
		return nil // lost the race to another signal
	}
	for _, it := range o.Items {
		if err := c.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			log.Printf("release after cancel failed: order=%s product=%s qty=%d: %v", o.ID, it.ProductID, it.Qty, err)
		}
	}
	log.Printf("order %s cancelled, stock released (reason=%s)", o.ID, p.Reason)
	c.cacheStatus(ctx, o.ID, orders.StatusCancelled)
	return nil
}

func (c *Confirmer) cacheStatus(ctx context.Context, orderID string, s orders.Status) {
	if c.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = c.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, s), redisx.TTLStatusCache).Err()
}
