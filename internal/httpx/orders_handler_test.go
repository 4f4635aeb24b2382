package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/auth"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/inventory"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
)

type stubLifecycle struct {
	createRes orders.MutationResult
	createErr error
	updateRes orders.MutationResult
	updateErr error
	cancelRes orders.MutationResult
	cancelErr error
}

func (s *stubLifecycle) Create(context.Context, string, orders.CreateOrderInput) (orders.MutationResult, error) {
	return s.createRes, s.createErr
}
func (s *stubLifecycle) Update(context.Context, string, string, orders.UpdateOrderInput) (orders.MutationResult, error) {
	return s.updateRes, s.updateErr
}
func (s *stubLifecycle) Cancel(context.Context, string, string) (orders.MutationResult, error) {
	return s.cancelRes, s.cancelErr
}

type stubStore struct {
	order    orders.Order
	orderErr error
}

func (s *stubStore) GetOrder(context.Context, string, string) (orders.Order, error) {
	return s.order, s.orderErr
}
func (s *stubStore) ListOrders(context.Context, string, orders.OrderFilter) ([]orders.Order, int, error) {
	return []orders.Order{s.order}, 1, nil
}
func (s *stubStore) RecentOrders(context.Context, string, int) ([]orders.Order, error) {
	return []orders.Order{s.order}, nil
}

type capturePub struct{ values [][]byte }

func (p *capturePub) Publish(_, value []byte, _ ...kafkago.Header) {
	p.values = append(p.values, value)
}

func testOrder() orders.Order {
	return orders.Order{
		ID:         "o1",
		OrderToken: "tok-1",
		Date:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		CustomerID: "c1",
		Status:     orders.StatusPending,
		TotalItems: 5,
		Items: []orders.OrderedItem{
			{ProductID: "p1", Quantity: 5, PriceAtOrderTime: decimal.RequireFromString("9.99")},
		},
	}
}

func serve(h *OrdersHandler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), "u1")))
	return rec
}

func TestCreateOrderSuccess(t *testing.T) {
	pub := &capturePub{}
	h := &OrdersHandler{
		Lifecycle: &stubLifecycle{createRes: orders.MutationResult{
			Order:       testOrder(),
			StockLevels: map[string]int{"p1": 3},
		}},
		Created: pub,
		Service: "test-api",
	}

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"customer_id":"c1","items":[{"product_id":"p1","quantity":5}]}`))
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		OrderToken string `json:"order_id"`
		TotalItems int    `json:"total_items"`
		Items      []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
			Price     string `json:"price_at_order_time"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok-1", body.OrderToken)
	assert.Equal(t, 5, body.TotalItems)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "9.99", body.Items[0].Price)

	// The mutation event carries the post-commit stock levels.
	require.Len(t, pub.values, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.values[0], &env))
	assert.Equal(t, orders.EventOrderCreated, env.EventType)
	var payload orders.OrderMutatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, map[string]int{"p1": 3}, payload.StockLevels)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	h := &OrdersHandler{
		Lifecycle: &stubLifecycle{createErr: &inventory.InsufficientStockError{
			ProductID: "p1", Name: "Widget", Available: 1, Requested: 5,
		}},
	}
	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"customer_id":"c1","items":[{"product_id":"p1","quantity":5}]}`))
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not enough stock for product Widget. Available: 1, required: 5", body["detail"])
}

func TestCreateOrderInvalidItems(t *testing.T) {
	h := &OrdersHandler{Lifecycle: &stubLifecycle{
		createErr: inventory.ErrInvalidLineItem,
	}}
	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"customer_id":"c1","items":[{"product_id":"p1","quantity":0}]}`))
	assert.Equal(t, http.StatusBadRequest, serve(h, req).Code)
}

func TestCreateOrderConcurrencyAbortIs409(t *testing.T) {
	h := &OrdersHandler{Lifecycle: &stubLifecycle{
		createErr: inventory.ErrConcurrencyAbort,
	}}
	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"customer_id":"c1","items":[{"product_id":"p1","quantity":1}]}`))
	assert.Equal(t, http.StatusConflict, serve(h, req).Code)
}

func TestCreateOrderMissingCustomer(t *testing.T) {
	h := &OrdersHandler{Lifecycle: &stubLifecycle{}}
	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"items":[{"product_id":"p1","quantity":1}]}`))
	assert.Equal(t, http.StatusBadRequest, serve(h, req).Code)
}

func TestUpdateOrderInvalidTransition(t *testing.T) {
	h := &OrdersHandler{Lifecycle: &stubLifecycle{
		updateErr: orders.ErrInvalidTransition,
	}}
	req := httptest.NewRequest(http.MethodPut, "/orders/o1",
		strings.NewReader(`{"status":"delivered"}`))
	assert.Equal(t, http.StatusBadRequest, serve(h, req).Code)
}

func TestDeleteOrderReleasesAndPublishes(t *testing.T) {
	pub := &capturePub{}
	h := &OrdersHandler{
		Lifecycle: &stubLifecycle{cancelRes: orders.MutationResult{
			Order:       testOrder(),
			StockLevels: map[string]int{"p1": 8},
		}},
		Canceled: pub,
	}
	req := httptest.NewRequest(http.MethodDelete, "/orders/o1", nil)
	rec := serve(h, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, pub.values, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.values[0], &env))
	assert.Equal(t, orders.EventOrderCanceled, env.EventType)
}

func TestGetOrderNotFound(t *testing.T) {
	h := &OrdersHandler{Store: &stubStore{orderErr: orders.ErrNotFound}}
	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, serve(h, req).Code)
}

func TestRequireAuth(t *testing.T) {
	issuer := auth.Issuer{Secret: []byte("s"), AccessTTL: time.Minute, RefreshTTL: time.Hour}
	r := chi.NewRouter()
	r.Use(RequireAuth(issuer))
	r.Get("/probe", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})

	// no token
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token
	pair, err := issuer.Issue("u42")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u42", rec.Body.String())

	// refresh token is not an access token
	req.Header.Set("Authorization", "Bearer "+pair.Refresh)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
