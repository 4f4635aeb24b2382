package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
)

type CustomersHandler struct {
	Repo *orders.Repo
}

func (h *CustomersHandler) Register(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{id}", h.get)
	r.Put("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.del)
}

func (h *CustomersHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cs, count, err := h.Repo.ListCustomers(r.Context(), UserID(r.Context()),
		atoiDefault(q.Get("page"), 1), atoiDefault(q.Get("page_size"), 10), q.Get("all") == "true")
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Count: count, Results: cs})
}

func (h *CustomersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Name == "" || in.Email == "" {
		writeDetail(w, http.StatusBadRequest, "name and email are required")
		return
	}
	c, err := h.Repo.CreateCustomer(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// get returns the customer with their order history, mirroring the customer
// detail view.
func (h *CustomersHandler) get(w http.ResponseWriter, r *http.Request) {
	user := UserID(r.Context())
	c, err := h.Repo.GetCustomer(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	os, err := h.Repo.CustomerOrders(r.Context(), user, c.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer": c,
		"orders":   os,
	})
}

func (h *CustomersHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch orders.CustomerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := h.Repo.UpdateCustomer(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) del(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteCustomer(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
