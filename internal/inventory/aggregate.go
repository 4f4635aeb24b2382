package inventory

// LineItem is one requested (product, quantity) pair as submitted by a
// client. Quantities are validated here, not at the ledger.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Aggregate merges a requested item list into one quantity per product, so
// the same product submitted twice behaves exactly like submitting it once
// with the combined quantity. The ledger must never see a product referenced
// twice within a single transaction.
func Aggregate(items []LineItem) (map[string]int, error) {
	if len(items) == 0 {
		return nil, invalidItem("order has no items")
	}
	agg := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, invalidItem("missing product_id")
		}
		if it.Quantity <= 0 {
			return nil, invalidItem("quantity must be positive for product %s, got %d", it.ProductID, it.Quantity)
		}
		agg[it.ProductID] += it.Quantity
	}
	return agg, nil
}
