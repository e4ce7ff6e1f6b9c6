package inventory

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrProductNotFound   = errors.New("product not found")
)

// InsufficientStockError carries the shortfall detail for a single product.
// errors.Is(err, ErrInsufficientStock) matches it.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Ledger owns product quantities. All three operations are mutually exclusive
// per product id; the in-stock flag is recomputed on every quantity change.
type Ledger interface {
	// Reserve decrements quantity, or fails without touching anything.
	// Returns the post-reservation quantity.
	Reserve(ctx context.Context, productID string, qty int) (int, error)
	// Release credits quantity back after a cancellation or a failed placement.
	Release(ctx context.Context, productID string, qty int) error
	// SetQuantity is the administrative absolute set. Negative values are rejected.
	SetQuantity(ctx context.Context, productID string, qty int) error
}
