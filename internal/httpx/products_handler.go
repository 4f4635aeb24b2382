package httpx

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
)

type ProductsHandler struct {
	Repo  *orders.Repo
	Redis *redis.Client
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.del)
}

type pagedResponse struct {
	Count   int `json:"count"`
	Results any `json:"results"`
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	user := UserID(r.Context())
	q := r.URL.Query()
	f := orders.ProductFilter{
		Status:   q.Get("status"),
		Top:      q.Get("top") == "true",
		All:      q.Get("all") == "true",
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("page_size"), 10),
	}

	// Read-through cache keyed by user and filter shape; product writes
	// invalidate the whole user bucket.
	key := fmt.Sprintf(redisx.KeyProductList, user,
		fmt.Sprintf("%s|%v|%v|%d|%d", f.Status, f.Top, f.All, f.Page, f.PageSize))
	if h.Redis != nil {
		var cached pagedResponse
		if err := redisx.GetJSON(r.Context(), h.Redis, key, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ps, count, err := h.Repo.ListProducts(r.Context(), user, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := pagedResponse{Count: count, Results: ps}
	if h.Redis != nil {
		if err := redisx.SetJSON(r.Context(), h.Redis, key, resp, redisx.TTLProductList); err != nil {
			log.Printf("cache products: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || in.SKU == "" {
		writeDetail(w, http.StatusBadRequest, "name and sku are required")
		return
	}
	if in.Stock < 0 {
		writeDetail(w, http.StatusBadRequest, "stock must not be negative")
		return
	}
	p, err := h.Repo.CreateProduct(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r, UserID(r.Context()))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetProduct(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch orders.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Repo.UpdateProduct(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r, UserID(r.Context()))
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) del(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteProduct(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(r, UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) invalidate(r *http.Request, user string) {
	if h.Redis == nil {
		return
	}
	if err := redisx.DelPattern(r.Context(), h.Redis,
		fmt.Sprintf(redisx.KeyProductListPattern, user)); err != nil {
		log.Printf("invalidate product cache: %v", err)
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
