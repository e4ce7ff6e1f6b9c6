package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced      = "OrderPlaced"
	EventPaymentSucceeded = "PaymentSucceeded"
	EventPaymentFailed    = "PaymentFailed"
	EventPaymentCancelled = "PaymentCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID string        `json:"order_id"`
	UserID  string        `json:"user_id"`
	Method  PaymentMethod `json:"method"`
	Items   []PlacedItem  `json:"items"`
	Total   string        `json:"total"`
}

// PaymentResultPayload is the out-of-band signal from the payment gateway.
// Signature covers order id, session id and event type; the confirmer drops
// anything that does not verify against the order it references.
type PaymentResultPayload struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason,omitempty"`
	Signature string `json:"signature"`
}
