package inventory

import (
	"context"
	"fmt"
)

// Ledger is the authoritative per-product available-stock counter. An
// implementation is scoped to one transaction: Stock must acquire the
// product's lock and hold it until the transaction commits or aborts, so the
// check in Apply and the write that follows are indivisible for concurrent
// callers. The pgx implementation locks with SELECT ... FOR UPDATE; MemLedger
// holds a mutex across the whole Apply.
type Ledger interface {
	Stock(ctx context.Context, productID string) (int, error)
	SetStock(ctx context.Context, productID string, stock int) error
}

// Apply executes a delta set as a single all-or-nothing reservation
// transaction. Products are locked and validated in ascending ID order; if
// any reservation is unsatisfiable the first shortfall (in that order) is
// returned and no delta is written. On success it returns the new stock level
// of every touched product.
//
// Apply never commits anything itself: the caller owns the surrounding
// transaction and must roll back on error.
func Apply(ctx context.Context, l Ledger, d DeltaSet) (map[string]int, error) {
	ids := SortedProducts(d)

	// Phase one: lock everything and validate every reservation.
	current := make(map[string]int, len(ids))
	for _, id := range ids {
		stock, err := l.Stock(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("read stock for %s: %w", id, err)
		}
		if stock < 0 {
			// Broken transaction discipline upstream, not a recoverable state.
			panic(fmt.Sprintf("inventory: product %s has negative stock %d", id, stock))
		}
		current[id] = stock
		if need := -d[id]; need > 0 && stock < need {
			return nil, &InsufficientStockError{ProductID: id, Available: stock, Requested: need}
		}
	}

	// Phase two: every delta is known to be satisfiable; write them all.
	levels := make(map[string]int, len(ids))
	for _, id := range ids {
		next := current[id] + d[id]
		if err := l.SetStock(ctx, id, next); err != nil {
			return nil, fmt.Errorf("write stock for %s: %w", id, err)
		}
		levels[id] = next
	}
	return levels, nil
}
