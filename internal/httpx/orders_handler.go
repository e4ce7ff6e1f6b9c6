package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-retail-checkout.git/internal/orders"
	"github.com/ariefcatur/go-retail-checkout.git/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Store   orders.Store
	Redis   *redis.Client // optional; nil disables the status cache
}

type placeOrderReq struct {
	Items   []orders.CartItem `json:"items"`
	Address orders.Address    `json:"address"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthUser)
			r.Post("/cod", h.placeCOD)
			r.Post("/gateway", h.placeGateway)
			r.Get("/user", h.userOrders)
			r.Get("/status/{id}", h.orderStatus)
		})
		r.Group(func(r chi.Router) {
			r.Use(AuthSeller)
			r.Get("/seller", h.allOrders)
			r.Delete("/", h.deleteAll)
		})
	})
}

func (h *OrdersHandler) placeCOD(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Service.PlaceCOD(ctx, UserID(r), req.Items, req.Address)
	if err != nil {
		fail(w, placementStatus(err), err.Error())
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true, "message": "Order Placed", "orderId": o.ID,
	})
}

func (h *OrdersHandler) placeGateway(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, redirect, err := h.Service.PlaceGateway(ctx, UserID(r), req.Items, req.Address)
	if err != nil {
		// The order may exist and stay pending when only the session
		// call failed; the client retries or the sweep reclaims it.
		fail(w, placementStatus(err), err.Error())
		return
	}

	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true, "orderId": o.ID, "redirectUrl": redirect,
	})
}

func (h *OrdersHandler) userOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Store.FindByUser(ctx, UserID(r))
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": out})
}

func (h *OrdersHandler) allOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Store.FindAll(ctx)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": out})
}

func (h *OrdersHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// Bulk delete never touches the ledger: quantities already reserved by
	// deleted orders stay deducted.
	if _, err := h.Store.DeleteAll(ctx); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "All orders deleted successfully",
	})
}

func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.Get(ctx, id)
	if errors.Is(err, orders.ErrOrderNotFound) || (err == nil && o.UserID != UserID(r)) {
		fail(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, id)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	h.cacheStatus(ctx, id, o.Status)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, s orders.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, s), redisx.TTLStatusCache).Err()
}
