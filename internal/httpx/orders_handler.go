package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/janhvii19/Inventory-Order-Management-System/internal/kafka"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
)

// OrderStore is the read side the handler needs; *orders.Repo satisfies it.
type OrderStore interface {
	GetOrder(ctx context.Context, user, id string) (orders.Order, error)
	ListOrders(ctx context.Context, user string, f orders.OrderFilter) ([]orders.Order, int, error)
	RecentOrders(ctx context.Context, user string, limit int) ([]orders.Order, error)
}

// OrderLifecycle is the mutation side; *orders.Lifecycle satisfies it.
type OrderLifecycle interface {
	Create(ctx context.Context, user string, in orders.CreateOrderInput) (orders.MutationResult, error)
	Update(ctx context.Context, user, id string, in orders.UpdateOrderInput) (orders.MutationResult, error)
	Cancel(ctx context.Context, user, id string) (orders.MutationResult, error)
}

// Publisher matches the kafka producer's fire-and-forget Publish.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store     OrderStore
	Lifecycle OrderLifecycle
	Created   Publisher
	Updated   Publisher
	Canceled  Publisher
	Service   string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders", h.create)
	r.Get("/orders/recent", h.recent)
	r.Get("/orders/{id}", h.get)
	r.Put("/orders/{id}", h.update)
	r.Delete("/orders/{id}", h.del)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.OrderFilter{
		Status:   q.Get("status"),
		All:      q.Get("all") == "true",
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("page_size"), 4),
	}
	os, count, err := h.Store.ListOrders(r.Context(), UserID(r.Context()), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Count: count, Results: os})
}

func (h *OrdersHandler) recent(w http.ResponseWriter, r *http.Request) {
	os, err := h.Store.RecentOrders(r.Context(), UserID(r.Context()), 10)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetOrder(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.CustomerID == "" {
		writeDetail(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	res, err := h.Lifecycle.Create(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(r, h.Created, orders.EventOrderCreated, res)
	writeJSON(w, http.StatusCreated, res.Order)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	var in orders.UpdateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.Lifecycle.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(r, h.Updated, orders.EventOrderUpdated, res)
	writeJSON(w, http.StatusOK, res.Order)
}

func (h *OrdersHandler) del(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lifecycle.Cancel(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	h.publish(r, h.Canceled, orders.EventOrderCanceled, res)
	w.WriteHeader(http.StatusNoContent)
}

// publish emits the mutation event after the transaction committed. Events
// are advisory (the analytics worker feeds on them); a nil publisher is fine.
func (h *OrdersHandler) publish(r *http.Request, pub Publisher, eventType string, res orders.MutationResult) {
	if pub == nil {
		return
	}
	o := res.Order
	items := make([]orders.EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orders.EventItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.PriceAtOrderTime,
		})
	}
	now := time.Now().UTC()
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    now,
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderMutatedPayload{
			OrderID:     o.ID,
			OrderToken:  o.OrderToken,
			CustomerID:  o.CustomerID,
			TotalItems:  o.TotalItems,
			Total:       orders.OrderTotal(o.Items),
			Items:       items,
			StockLevels: res.StockLevels,
			OccurredAt:  now,
		}),
	}
	pub.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
