package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-retail-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-retail-checkout.git/internal/kafka"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderCreationFailed = errors.New("order creation failed")
)

type CartItem struct {
	ProductID string `json:"product"`
	Qty       int    `json:"quantity"`
}

// Catalog is the read-side lookup the placement service validates carts against.
type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

type PaymentSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, o Order) (PaymentSession, error)
}

// Service places orders: validate the cart, reserve stock product by product,
// persist the order, and either settle immediately (COD) or hand off to the
// payment gateway (order stays pending, reservation held).
type Service struct {
	Catalog        Catalog
	Ledger         inventory.Ledger
	Orders         Store
	Gateway        PaymentGateway
	Producer       *kafkax.Producer // optional; nil skips event publishing
	ServiceName    string
	GatewayTimeout time.Duration
}

func (s *Service) PlaceCOD(ctx context.Context, userID string, cart []CartItem, addr Address) (Order, error) {
	return s.checkout(ctx, userID, cart, addr, MethodCOD)
}

// PlaceGateway creates the pending order first, then initiates the payment
// session. A session failure leaves the order pending with its reservation
// held; the expiry sweep reclaims it if no confirmation ever arrives.
func (s *Service) PlaceGateway(ctx context.Context, userID string, cart []CartItem, addr Address) (Order, string, error) {
	o, err := s.checkout(ctx, userID, cart, addr, MethodGateway)
	if err != nil {
		return Order{}, "", err
	}

	timeout := s.GatewayTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := s.Gateway.CreateSession(sctx, o)
	if err != nil {
		return o, "", fmt.Errorf("create payment session: %w", err)
	}
	if err := s.Orders.SetSession(ctx, o.ID, sess.SessionID); err != nil {
		return o, "", fmt.Errorf("store payment session: %w", err)
	}
	o.SessionID = sess.SessionID
	return o, sess.RedirectURL, nil
}

func (s *Service) checkout(ctx context.Context, userID string, cart []CartItem, addr Address, method PaymentMethod) (Order, error) {
	if len(cart) == 0 {
		return Order{}, ErrEmptyCart
	}

	// Merge duplicate lines and walk products in a stable order so two
	// overlapping checkouts always lock in the same sequence.
	merged := make(map[string]int, len(cart))
	for _, it := range cart {
		if it.Qty <= 0 {
			return Order{}, fmt.Errorf("product %s: %w", it.ProductID, inventory.ErrInvalidQuantity)
		}
		merged[it.ProductID] += it.Qty
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Price and name snapshots come from the catalog before anything is
	// reserved; an unknown product fails the whole cart untouched.
	items := make([]LineItem, 0, len(ids))
	for _, id := range ids {
		p, err := s.Catalog.Get(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return Order{}, fmt.Errorf("product %s: %w", id, inventory.ErrProductNotFound)
			}
			return Order{}, fmt.Errorf("lookup product %s: %w", id, err)
		}
		items = append(items, LineItem{ProductID: id, Name: p.Name, Qty: merged[id], UnitPrice: p.OfferPrice})
	}

	// Reserve one product at a time; any failure rolls back what was
	// already taken before surfacing the error. No partial orders.
	reserved := make([]LineItem, 0, len(items))
	for _, it := range items {
		if _, err := s.Ledger.Reserve(ctx, it.ProductID, it.Qty); err != nil {
			s.releaseAll(ctx, reserved)
			return Order{}, err
		}
		reserved = append(reserved, it)
	}

	o := NewOrder(userID, items, addr, method)
	if err := s.Orders.Create(ctx, o); err != nil {
		s.releaseAll(ctx, reserved)
		return Order{}, fmt.Errorf("%w: %v", ErrOrderCreationFailed, err)
	}

	s.publishPlaced(o)
	return o, nil
}

func (s *Service) releaseAll(ctx context.Context, items []LineItem) {
	for _, it := range items {
		if err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			log.Printf("compensating release failed: product=%s qty=%d: %v", it.ProductID, it.Qty, err)
		}
	}
}

func (s *Service) publishPlaced(o Order) {
	if s.Producer == nil {
		return
	}
	placed := make([]PlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		placed = append(placed, PlacedItem{ProductID: it.ProductID, Qty: it.Qty, UnitPrice: it.UnitPrice.String()})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderPlacedPayload{
			OrderID: o.ID,
			UserID:  o.UserID,
			Method:  o.Method,
			Items:   placed,
			Total:   o.Total.String(),
		}),
	}
	s.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
