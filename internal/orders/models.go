package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// Product carries the authoritative stock counter. Stock is mutated only by
// reservation transactions; UnitsSold only grows, and only on successful
// order creation.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Status    ProductStatus   `json:"status"`
	UnitsSold int             `json:"units_sold"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID         string        `json:"id"`
	OrderToken string        `json:"order_id"` // opaque external identifier, set once at creation
	Date       time.Time     `json:"date"`
	CustomerID string        `json:"customer_id"`
	Status     Status        `json:"status"`
	TotalItems int           `json:"total_items"`
	CreatedBy  string        `json:"created_by"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Items      []OrderedItem `json:"items,omitempty"`
}

// OrderedItem is one reservation in the order's reservation set.
// PriceAtOrderTime is snapshotted when the item is reserved and does not
// follow later price changes.
type OrderedItem struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"-"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	Quantity         int             `json:"quantity"`
	PriceAtOrderTime decimal.Decimal `json:"price_at_order_time"`
}

// ReservationSet is the order's current reservations as product -> quantity.
func (o *Order) ReservationSet() map[string]int {
	set := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		set[it.ProductID] += it.Quantity
	}
	return set
}
