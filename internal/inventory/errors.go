package inventory

import (
	"errors"
	"fmt"
)

// ErrInvalidLineItem covers non-positive quantities and product references
// that do not resolve to an existing row. Rejected before the ledger is
// touched.
var ErrInvalidLineItem = errors.New("invalid line item")

// ErrConcurrencyAbort means lock or serialization contention, not a stock
// shortfall. Callers may retry; an InsufficientStockError retry is pointless.
var ErrConcurrencyAbort = errors.New("concurrent transaction aborted")

// InsufficientStockError is returned when a reservation cannot be satisfied.
// It guarantees no delta of the enclosing transaction was applied.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("Not enough stock for product %s. Available: %d, required: %d",
		name, e.Available, e.Requested)
}

func invalidItem(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLineItem, fmt.Sprintf(format, args...))
}
