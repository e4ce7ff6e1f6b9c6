package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-retail-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
)

type fakeGateway struct {
	sess  PaymentSession
	err   error
	calls int
}

func (g *fakeGateway) CreateSession(context.Context, Order) (PaymentSession, error) {
	g.calls++
	return g.sess, g.err
}

type testEnv struct {
	catalog *catalog.MemStore
	ledger  *inventory.MemLedger
	store   *MemStore
	gateway *fakeGateway
	svc     *Service
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		catalog: catalog.NewMemStore(),
		ledger:  inventory.NewMemLedger(),
		store:   NewMemStore(),
		gateway: &fakeGateway{sess: PaymentSession{SessionID: "sess-1", RedirectURL: "https://pay.example/s/sess-1"}},
	}
	e.svc = &Service{
		Catalog:        e.catalog,
		Ledger:         e.ledger,
		Orders:         e.store,
		Gateway:        e.gateway,
		GatewayTimeout: time.Second,
	}
	return e
}

func (e *testEnv) seed(t *testing.T, id, name string, price string, qty int) {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	require.NoError(t, e.catalog.Add(context.Background(), catalog.Product{
		ID: id, Name: name, Category: "test", OfferPrice: p, Quantity: qty,
	}))
	e.ledger.Seed(id, qty)
}

func (e *testEnv) quantity(t *testing.T, id string) int {
	t.Helper()
	q, ok := e.ledger.Quantity(id)
	require.True(t, ok)
	return q
}

var testAddr = Address{FullName: "Jane Doe", Street: "1 Main St", City: "Springfield", Country: "US"}

func TestPlaceCOD_HappyPath(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	o, err := e.svc.PlaceCOD(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 3}}, testAddr)

	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.True(t, o.Settled)
	assert.Equal(t, MethodCOD, o.Method)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("120")), "total = %s", o.Total)
	assert.Equal(t, 2, e.quantity(t, "p1"))

	stored, err := e.store.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Tomatoes", stored.Items[0].Name)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("40")))
}

func TestPlaceCOD_InsufficientStock_AfterFirstOrder(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	_, err := e.svc.PlaceCOD(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 3}}, testAddr)
	require.NoError(t, err)
	require.Equal(t, 2, e.quantity(t, "p1"))

	_, err = e.svc.PlaceCOD(context.Background(), "user-2", []CartItem{{ProductID: "p1", Qty: 3}}, testAddr)

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, e.quantity(t, "p1"), "failed placement must not touch the ledger")
	all, err := e.store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1, "no partial order may exist")
}

func TestPlaceCOD_EmptyCart(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.PlaceCOD(context.Background(), "user-1", nil, testAddr)

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceCOD_NonPositiveQuantityRejectedBeforeLedger(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	_, err := e.svc.PlaceCOD(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 0}}, testAddr)

	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	assert.Equal(t, 5, e.quantity(t, "p1"))
}

func TestPlaceCOD_UnknownProductFailsWholeCart(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	_, err := e.svc.PlaceCOD(context.Background(), "user-1",
		[]CartItem{{ProductID: "p1", Qty: 1}, {ProductID: "ghost", Qty: 1}}, testAddr)

	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	assert.Equal(t, 5, e.quantity(t, "p1"), "no reservation may survive a failed cart")
}

func TestPlaceCOD_MidCartFailureRollsBackPriorReservations(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "a", "Apples", "10", 10)
	e.seed(t, "b", "Bananas", "5", 1)

	_, err := e.svc.PlaceCOD(context.Background(), "user-1",
		[]CartItem{{ProductID: "a", Qty: 2}, {ProductID: "b", Qty: 5}}, testAddr)

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	var detail *inventory.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, "b", detail.ProductID)
	assert.Equal(t, 10, e.quantity(t, "a"), "earlier reservation must be compensated")
	assert.Equal(t, 1, e.quantity(t, "b"))
}

type failingStore struct {
	Store
	err error
}

func (f *failingStore) Create(context.Context, Order) error { return f.err }

func TestPlaceCOD_CreateFailureReleasesReservation(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)
	e.svc.Orders = &failingStore{Store: e.store, err: errors.New("connection reset")}

	_, err := e.svc.PlaceCOD(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 3}}, testAddr)

	assert.ErrorIs(t, err, ErrOrderCreationFailed)
	assert.Equal(t, 5, e.quantity(t, "p1"), "reservation must be released when the write fails")
}

func TestPlaceCOD_DuplicateLinesMerged(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	o, err := e.svc.PlaceCOD(context.Background(), "user-1",
		[]CartItem{{ProductID: "p1", Qty: 1}, {ProductID: "p1", Qty: 2}}, testAddr)

	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Qty)
	assert.Equal(t, 2, e.quantity(t, "p1"))
}

func TestPlaceGateway_PendingWithRedirect(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)

	o, redirect, err := e.svc.PlaceGateway(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 2}}, testAddr)

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/s/sess-1", redirect)
	assert.Equal(t, StatusPending, o.Status)
	assert.False(t, o.Settled)
	assert.Equal(t, 3, e.quantity(t, "p1"), "reservation held while pending")

	stored, err := e.store.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", stored.SessionID)
	assert.Equal(t, 1, e.gateway.calls)
}

func TestPlaceGateway_SessionFailureKeepsOrderPending(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "p1", "Tomatoes", "40", 5)
	e.gateway.err = errors.New("gateway timeout")

	_, _, err := e.svc.PlaceGateway(context.Background(), "user-1", []CartItem{{ProductID: "p1", Qty: 2}}, testAddr)

	require.Error(t, err)
	assert.Equal(t, 3, e.quantity(t, "p1"), "reservation stays held for the sweep")

	all, err := e.store.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StatusPending, all[0].Status)
}
