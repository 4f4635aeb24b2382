package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderUpdated  = "OrderUpdated"
	EventOrderCanceled = "OrderCanceled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ---- per-event payloads ----

type EventItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price_at_order_time"`
}

// OrderMutatedPayload is shared by created/updated/canceled events. StockLevels
// holds the post-commit available stock of every product the mutation touched,
// which is what the analytics worker feeds on.
type OrderMutatedPayload struct {
	OrderID     string          `json:"order_id"`
	OrderToken  string          `json:"order_token"`
	CustomerID  string          `json:"customer_id,omitempty"`
	TotalItems  int             `json:"total_items"`
	Total       decimal.Decimal `json:"total"`
	Items       []EventItem     `json:"items,omitempty"`
	StockLevels map[string]int  `json:"stock_levels"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
