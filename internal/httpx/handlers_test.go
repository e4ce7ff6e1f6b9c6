package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-retail-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
)

type nullImages struct{}

func (nullImages) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://img.example/" + name, nil
}

type apiEnv struct {
	router  *chi.Mux
	catalog *catalog.MemStore
	ledger  *inventory.MemLedger
	store   *orders.MemStore
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	e := &apiEnv{
		router:  NewRouter(),
		catalog: catalog.NewMemStore(),
		ledger:  inventory.NewMemLedger(),
		store:   orders.NewMemStore(),
	}
	svc := &orders.Service{
		Catalog:        e.catalog,
		Ledger:         e.ledger,
		Orders:         e.store,
		GatewayTimeout: time.Second,
	}
	(&OrdersHandler{Service: svc, Store: e.store}).Register(e.router)
	(&ProductsHandler{Catalog: e.catalog, Ledger: e.ledger, Images: nullImages{}}).Register(e.router)
	return e
}

func (e *apiEnv) seed(t *testing.T, id string, price string, qty int) {
	t.Helper()
	require.NoError(t, e.catalog.Add(context.Background(), catalog.Product{
		ID: id, Name: id, Category: "test", OfferPrice: decimal.RequireFromString(price), Quantity: qty,
	}))
	e.ledger.Seed(id, qty)
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

var asUser = map[string]string{"X-User-Id": "user-1"}
var asSeller = map[string]string{"X-Seller": "true"}

func codBody(product string, qty int) map[string]any {
	return map[string]any{
		"items":   []map[string]any{{"product": product, "quantity": qty}},
		"address": map[string]any{"fullName": "Jane Doe", "city": "Springfield"},
	}
}

func TestPlaceCOD_RequiresAuth(t *testing.T) {
	e := newAPI(t)

	rec, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 1), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Not Authorized", out["message"])
}

func TestPlaceCOD_Success(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 5)

	rec, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 3), asUser)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Order Placed", out["message"])

	q, _ := e.ledger.Quantity("p1")
	assert.Equal(t, 2, q)
}

func TestPlaceCOD_InsufficientStock(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 2)

	rec, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 3), asUser)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["message"], "insufficient stock")

	q, _ := e.ledger.Quantity("p1")
	assert.Equal(t, 2, q)
}

func TestUserOrders_OnlyOwn(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 10)

	_, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 1), asUser)
	require.Equal(t, true, out["success"])
	_, out = e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 1), map[string]string{"X-User-Id": "user-2"})
	require.Equal(t, true, out["success"])

	rec, out := e.do(t, http.MethodGet, "/api/order/user", nil, asUser)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["orders"], 1)
}

func TestSellerOrders_RequiresSellerFlag(t *testing.T) {
	e := newAPI(t)

	rec, _ := e.do(t, http.MethodGet, "/api/order/seller", nil, asUser)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := e.do(t, http.MethodGet, "/api/order/seller", nil, asSeller)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
}

func TestBulkDelete_RemovesOrdersButNotStock(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 10)

	_, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 4), asUser)
	require.Equal(t, true, out["success"])
	q, _ := e.ledger.Quantity("p1")
	require.Equal(t, 6, q)

	rec, out := e.do(t, http.MethodDelete, "/api/order", nil, asSeller)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All orders deleted successfully", out["message"])

	all, err := e.store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	q, _ = e.ledger.Quantity("p1")
	assert.Equal(t, 6, q, "bulk delete must not restore reserved stock")
}

func TestOrderStatus_OwnershipEnforced(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 5)

	_, out := e.do(t, http.MethodPost, "/api/order/cod", codBody("p1", 1), asUser)
	orderID, _ := out["orderId"].(string)
	require.NotEmpty(t, orderID)

	rec, out := e.do(t, http.MethodGet, "/api/order/status/"+orderID, nil, asUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(orders.StatusConfirmed), out["status"])

	rec, _ = e.do(t, http.MethodGet, "/api/order/status/"+orderID, nil, map[string]string{"X-User-Id": "user-2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStockUpdate_NegativeRejected(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 5)

	rec, out := e.do(t, http.MethodPost, "/api/product/stock",
		map[string]any{"id": "p1", "quantity": -1}, asSeller)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity cannot be negative", out["message"])

	q, _ := e.ledger.Quantity("p1")
	assert.Equal(t, 5, q)
}

func TestStockUpdate_Success(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 5)

	rec, out := e.do(t, http.MethodPost, "/api/product/stock",
		map[string]any{"id": "p1", "quantity": 0}, asSeller)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stock Updated", out["message"])

	q, _ := e.ledger.Quantity("p1")
	assert.Equal(t, 0, q)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	e := newAPI(t)

	rec, out := e.do(t, http.MethodDelete, "/api/product/ghost", nil, asSeller)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", out["message"])
}

func TestProductList_Public(t *testing.T) {
	e := newAPI(t)
	e.seed(t, "p1", "40", 5)
	e.seed(t, "p2", "10", 0)

	rec, out := e.do(t, http.MethodGet, "/api/product/list", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["products"], 2)

	rec, out = e.do(t, http.MethodGet, "/api/product/list/in-stock", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["products"], 1)
}
