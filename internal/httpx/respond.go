package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/auth"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/inventory"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail emits the API's error envelope: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeErr maps domain errors onto status codes. Insufficient stock keeps its
// exact message ("Not enough stock for product ..."); a concurrency abort is
// 409 so clients know a retry is meaningful.
func writeErr(w http.ResponseWriter, err error) {
	var short *inventory.InsufficientStockError
	switch {
	case errors.As(err, &short):
		writeDetail(w, http.StatusBadRequest, short.Error())
	case errors.Is(err, inventory.ErrInvalidLineItem),
		errors.Is(err, orders.ErrInvalidTransition):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrConcurrencyAbort):
		writeDetail(w, http.StatusConflict, "concurrent update, please retry")
	case errors.Is(err, orders.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrBadCredentials):
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrEmailTaken):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}
