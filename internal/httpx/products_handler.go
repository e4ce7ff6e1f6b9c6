package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-retail-checkout.git/internal/imagestore"
	"github.com/ariefcatur/go-retail-checkout.git/internal/inventory"
)

const maxUploadBytes = 32 << 20

type ProductsHandler struct {
	Catalog catalog.Store
	Ledger  inventory.Ledger
	Images  imagestore.Store
}

// productData is the JSON part of the seller multipart forms.
type productData struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	OfferPrice decimal.Decimal `json:"offerPrice"`
	Quantity   int             `json:"quantity"`
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Route("/api/product", func(r chi.Router) {
		r.Get("/list", h.list)
		r.Get("/list/in-stock", h.listInStock)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(AuthSeller)
			r.Post("/add", h.add)
			r.Put("/update", h.update)
			r.Delete("/{id}", h.delete)
			r.Post("/stock", h.stock)
		})
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": ps})
}

func (h *ProductsHandler) listInStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListInStock(ctx)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "products": ps})
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *ProductsHandler) add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	var data productData
	if err := json.Unmarshal([]byte(r.FormValue("productData")), &data); err != nil {
		fail(w, http.StatusBadRequest, "invalid productData")
		return
	}
	if data.Name == "" || data.OfferPrice.IsNegative() || data.Quantity < 0 {
		fail(w, http.StatusBadRequest, "invalid product fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	urls, err := h.uploadAll(ctx, r.MultipartForm.File["images"])
	if err != nil {
		fail(w, http.StatusBadGateway, err.Error())
		return
	}

	now := time.Now().UTC()
	p := catalog.Product{
		ID:         uuid.NewString(),
		Name:       data.Name,
		Category:   data.Category,
		OfferPrice: data.OfferPrice,
		Quantity:   data.Quantity,
		InStock:    data.Quantity > 0,
		Images:     urls,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Catalog.Add(ctx, p); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Product Added"})
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	var data productData
	if err := json.Unmarshal([]byte(r.FormValue("productData")), &data); err != nil {
		fail(w, http.StatusBadRequest, "invalid productData")
		return
	}
	if data.ID == "" || data.OfferPrice.IsNegative() || data.Quantity < 0 {
		fail(w, http.StatusBadRequest, "invalid product fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	cur, err := h.Catalog.Get(ctx, data.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	images := cur.Images
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		urls, err := h.uploadAll(ctx, files)
		if err != nil {
			fail(w, http.StatusBadGateway, err.Error())
			return
		}
		images = urls
	}

	cur.Name = data.Name
	cur.Category = data.Category
	cur.OfferPrice = data.OfferPrice
	cur.Quantity = data.Quantity
	cur.InStock = data.Quantity > 0
	cur.Images = images
	if err := h.Catalog.Update(ctx, cur); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": cur})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Catalog.Delete(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Product deleted successfully"})
}

func (h *ProductsHandler) stock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Ledger.SetQuantity(ctx, req.ID, req.Quantity)
	if errors.Is(err, inventory.ErrInvalidQuantity) {
		fail(w, http.StatusBadRequest, "Quantity cannot be negative")
		return
	}
	if errors.Is(err, inventory.ErrProductNotFound) {
		fail(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := h.Catalog.Get(ctx, req.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Stock Updated", "product": p})
}

func (h *ProductsHandler) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		u, err := h.Images.Upload(ctx, fh.Filename, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}
