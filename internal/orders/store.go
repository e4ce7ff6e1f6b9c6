package orders

import (
	"context"
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// Store persists orders. Create runs only after reservation succeeded; the
// placement service compensates the ledger when Create fails.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	FindByUser(ctx context.Context, userID string) ([]Order, error)
	FindAll(ctx context.Context) ([]Order, error)

	// DeleteAll removes every order. It deliberately leaves the inventory
	// ledger alone; reserved stock is not restored by a bulk delete.
	DeleteAll(ctx context.Context) (int64, error)

	// Transition applies pending -> to when the state machine allows it.
	// Returns false (and no error) when the order is already terminal.
	Transition(ctx context.Context, id string, to Status) (bool, error)

	// SetSession records the payment session reference on a pending order.
	SetSession(ctx context.Context, id, sessionID string) error

	// ListStalePending returns gateway orders still pending since before cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]Order, error)
}
