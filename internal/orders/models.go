package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCOD     PaymentMethod = "COD"
	MethodGateway PaymentMethod = "GATEWAY"
)

type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// LineItem snapshots the product at the moment of reservation. The name and
// unit price never track later catalog edits.
type LineItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Qty       int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"paymentType"`
	Settled   bool            `json:"isPaid"`
	Status    Status          `json:"status"`
	Address   Address         `json:"address"`
	SessionID string          `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewOrder builds an order with the total computed from the item snapshots.
// COD orders are final immediately; gateway orders start pending and
// unsettled until the confirmation signal arrives.
func NewOrder(userID string, items []LineItem, addr Address, method PaymentMethod) Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	now := time.Now().UTC()
	o := Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     items,
		Total:     total,
		Method:    method,
		Address:   addr,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if method == MethodCOD {
		o.Status = StatusConfirmed
		o.Settled = true
	}
	return o
}
