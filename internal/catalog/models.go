package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	OfferPrice decimal.Decimal `json:"offerPrice"`
	Quantity   int             `json:"quantity"`
	InStock    bool            `json:"inStock"` // always derived from Quantity
	Images     []string        `json:"images"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Store is the catalog read side plus seller administration. Stock mutations
// tied to orders go through the inventory ledger, never through here.
type Store interface {
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	ListInStock(ctx context.Context) ([]Product, error)
	Add(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}
