package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
)

// Client talks to the external payment gateway. CreateSession is the only
// synchronous call; confirmation comes back out of band on the payment.result
// topic.
type Client struct {
	BaseURL string
	Secret  string
	HTTP    *http.Client
}

func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type sessionRequest struct {
	OrderID string        `json:"order_id"`
	Amount  string        `json:"amount"`
	Items   []sessionItem `json:"items"`
}

type sessionItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
}

func (c *Client) CreateSession(ctx context.Context, o orders.Order) (orders.PaymentSession, error) {
	body := sessionRequest{OrderID: o.ID, Amount: o.Total.String()}
	for _, it := range o.Items {
		body.Items = append(body.Items, sessionItem{
			ProductID: it.ProductID, Name: it.Name, Qty: it.Qty, UnitPrice: it.UnitPrice.String(),
		})
	}
	b, err := json.Marshal(body)
	if err != nil {
		return orders.PaymentSession{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/sessions", bytes.NewReader(b))
	if err != nil {
		return orders.PaymentSession{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", Sign(c.Secret, o.ID, o.Total.String()))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return orders.PaymentSession{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return orders.PaymentSession{}, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	var sess orders.PaymentSession
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return orders.PaymentSession{}, fmt.Errorf("decode session: %w", err)
	}
	if sess.SessionID == "" || sess.RedirectURL == "" {
		return orders.PaymentSession{}, fmt.Errorf("gateway returned incomplete session")
	}
	return sess, nil
}
