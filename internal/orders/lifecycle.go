package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/inventory"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Lifecycle drives order create / update / cancel. Every mutation is one
// transaction: products are row-locked in ascending ID order, the merged
// delta set is validated and applied through inventory.Apply, and only then
// are the order's item rows and counters written. A failure at any point
// rolls the whole thing back.
type Lifecycle struct {
	DB *pgxpool.Pool

	// begin overrides the transaction source; nil uses DB. Set by tests.
	begin func(ctx context.Context) (lifecycleTx, error)
}

// MutationResult is what a committed order mutation reports: the persisted
// order and the post-commit stock level of every product the transaction
// touched.
type MutationResult struct {
	Order       Order
	StockLevels map[string]int
}

// lifecycleTx is one mutation's transactional view of the store. The pgx
// implementation spans a single database transaction holding every row lock
// until Commit or Rollback.
type lifecycleTx interface {
	CustomerExists(ctx context.Context, user, customerID string) (bool, error)
	ApplyDelta(ctx context.Context, d inventory.DeltaSet) (map[string]int, error)
	LockOrder(ctx context.Context, user, orderID string) (Order, error)
	CurrentReservations(ctx context.Context, orderID string) (map[string]int, error)
	InsertOrder(ctx context.Context, o *Order) error
	SaveOrder(ctx context.Context, o *Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	ReplaceItems(ctx context.Context, orderID string, agg map[string]int) ([]OrderedItem, int, error)
	AddUnitsSold(ctx context.Context, productID string, qty int) error
	OrderItems(ctx context.Context, orderID string) ([]OrderedItem, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func (m *Lifecycle) beginTx(ctx context.Context) (lifecycleTx, error) {
	if m.begin != nil {
		return m.begin(ctx)
	}
	tx, err := m.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, mapPgErr(err)
	}
	return &pgTx{tx: tx, led: newTxLedger(tx)}, nil
}

type CreateOrderInput struct {
	CustomerID string               `json:"customer_id"`
	Date       time.Time            `json:"date"`
	Status     Status               `json:"status"`
	Items      []inventory.LineItem `json:"items"`
}

// Create reserves stock for the aggregated items and persists the order, its
// item rows with price snapshots, total_items and units_sold, all in one
// transaction. On any failure nothing is created and no counter moves.
func (m *Lifecycle) Create(ctx context.Context, user string, in CreateOrderInput) (MutationResult, error) {
	agg, err := inventory.Aggregate(in.Items)
	if err != nil {
		return MutationResult{}, err
	}
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !ValidStatus(in.Status) {
		return MutationResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, in.Status)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	tx, err := m.beginTx(ctx)
	if err != nil {
		return MutationResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	exists, err := tx.CustomerExists(ctx, user, in.CustomerID)
	if err != nil {
		return MutationResult{}, err
	}
	if !exists {
		return MutationResult{}, fmt.Errorf("customer %s: %w", in.CustomerID, ErrNotFound)
	}

	levels, err := tx.ApplyDelta(ctx, inventory.ReserveDelta(agg))
	if err != nil {
		return MutationResult{}, err
	}

	o := Order{
		ID:         uuid.NewString(),
		OrderToken: uuid.NewString(),
		Date:       in.Date,
		CustomerID: in.CustomerID,
		Status:     in.Status,
		CreatedBy:  user,
	}
	if err := tx.InsertOrder(ctx, &o); err != nil {
		return MutationResult{}, err
	}
	if o.Items, o.TotalItems, err = tx.ReplaceItems(ctx, o.ID, agg); err != nil {
		return MutationResult{}, err
	}
	if err := tx.SaveOrder(ctx, &o); err != nil {
		return MutationResult{}, err
	}

	// units_sold grows on successful creation only; update and cancel never
	// touch it.
	for _, id := range inventory.SortedProducts(inventory.ReserveDelta(agg)) {
		if err := tx.AddUnitsSold(ctx, id, agg[id]); err != nil {
			return MutationResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Order: o, StockLevels: levels}, nil
}

type UpdateOrderInput struct {
	CustomerID *string               `json:"customer_id"`
	Date       *time.Time            `json:"date"`
	Status     *Status               `json:"status"`
	Items      *[]inventory.LineItem `json:"items"`
}

// Update replaces the order's reservation set with the newly aggregated one
// as a single netted delta (old 5 -> new 3 is one +2, never +5 then -3), and
// rewrites the item rows with fresh price snapshots. Non-item fields are
// patched in the same transaction; a failed update leaves the existing
// reservation set untouched.
func (m *Lifecycle) Update(ctx context.Context, user, orderID string, in UpdateOrderInput) (MutationResult, error) {
	tx, err := m.beginTx(ctx)
	if err != nil {
		return MutationResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the order row first so two updates of the same order serialize.
	o, err := tx.LockOrder(ctx, user, orderID)
	if err != nil {
		return MutationResult{}, err
	}

	if in.Status != nil {
		if !ValidStatus(*in.Status) || !CanTransition(o.Status, *in.Status) {
			return MutationResult{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, *in.Status)
		}
		o.Status = *in.Status
	}
	if in.CustomerID != nil {
		exists, err := tx.CustomerExists(ctx, user, *in.CustomerID)
		if err != nil {
			return MutationResult{}, err
		}
		if !exists {
			return MutationResult{}, fmt.Errorf("customer %s: %w", *in.CustomerID, ErrNotFound)
		}
		o.CustomerID = *in.CustomerID
	}
	if in.Date != nil {
		o.Date = *in.Date
	}

	var levels map[string]int
	if in.Items != nil {
		agg, err := inventory.Aggregate(*in.Items)
		if err != nil {
			return MutationResult{}, err
		}
		current, err := tx.CurrentReservations(ctx, o.ID)
		if err != nil {
			return MutationResult{}, err
		}
		levels, err = tx.ApplyDelta(ctx, inventory.UpdateDelta(current, agg))
		if err != nil {
			return MutationResult{}, err
		}
		// Re-snapshot price_at_order_time for the whole new set: an update
		// re-reserves, so every item gets the product's current price.
		o.Items, o.TotalItems, err = tx.ReplaceItems(ctx, o.ID, agg)
		if err != nil {
			return MutationResult{}, err
		}
	} else if o.Items, err = tx.OrderItems(ctx, o.ID); err != nil {
		return MutationResult{}, err
	}

	if err := tx.SaveOrder(ctx, &o); err != nil {
		return MutationResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Order: o, StockLevels: levels}, nil
}

// Cancel releases the order's entire reservation set back to the ledger and
// removes the order with its items. Stock always returns to its pre-order
// level; the release is never skipped.
func (m *Lifecycle) Cancel(ctx context.Context, user, orderID string) (MutationResult, error) {
	tx, err := m.beginTx(ctx)
	if err != nil {
		return MutationResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := tx.LockOrder(ctx, user, orderID)
	if err != nil {
		return MutationResult{}, err
	}
	current, err := tx.CurrentReservations(ctx, o.ID)
	if err != nil {
		return MutationResult{}, err
	}

	levels, err := tx.ApplyDelta(ctx, inventory.ReleaseDelta(current))
	if err != nil {
		return MutationResult{}, err
	}
	if err := tx.DeleteOrder(ctx, o.ID); err != nil {
		return MutationResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{Order: o, StockLevels: levels}, nil
}

// ---- pgx implementation ----

// txLedger adapts one pgx transaction to the inventory.Ledger contract.
// Stock takes the product's row lock (FOR UPDATE), held until commit or
// rollback, making the check-then-write in inventory.Apply indivisible.
type txLedger struct {
	tx    pgx.Tx
	names map[string]string
}

func newTxLedger(tx pgx.Tx) *txLedger {
	return &txLedger{tx: tx, names: make(map[string]string)}
}

func (l *txLedger) Stock(ctx context.Context, productID string) (int, error) {
	var stock int
	var name string
	err := l.tx.QueryRow(ctx,
		`SELECT stock, name FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&stock, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: unknown product %s", inventory.ErrInvalidLineItem, productID)
	}
	if err != nil {
		return 0, mapPgErr(err)
	}
	l.names[productID] = name
	return stock, nil
}

func (l *txLedger) SetStock(ctx context.Context, productID string, stock int) error {
	ct, err := l.tx.Exec(ctx,
		`UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, productID, stock)
	if err != nil {
		return mapPgErr(err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock update touched %d rows for product %s", ct.RowsAffected(), productID)
	}
	return nil
}

// mapPgErr folds lock and serialization contention into ErrConcurrencyAbort
// so callers can tell a retryable abort from a genuine stock shortfall.
func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization, deadlock, lock timeout
			return fmt.Errorf("%w: %s", inventory.ErrConcurrencyAbort, pgErr.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", inventory.ErrConcurrencyAbort, err)
	}
	return err
}

type pgTx struct {
	tx  pgx.Tx
	led *txLedger
}

func (p *pgTx) Commit(ctx context.Context) error {
	if err := p.tx.Commit(ctx); err != nil {
		return mapPgErr(err)
	}
	return nil
}

func (p *pgTx) Rollback(ctx context.Context) error { return p.tx.Rollback(ctx) }

func (p *pgTx) CustomerExists(ctx context.Context, user, customerID string) (bool, error) {
	var exists bool
	err := p.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id=$1 AND created_by=$2)`,
		customerID, user).Scan(&exists)
	if err != nil {
		return false, mapPgErr(err)
	}
	return exists, nil
}

// ApplyDelta runs the delta set and fills product names into any shortfall
// error.
func (p *pgTx) ApplyDelta(ctx context.Context, d inventory.DeltaSet) (map[string]int, error) {
	levels, err := inventory.Apply(ctx, p.led, d)
	var short *inventory.InsufficientStockError
	if errors.As(err, &short) && short.Name == "" {
		short.Name = p.led.names[short.ProductID]
	}
	return levels, err
}

func (p *pgTx) LockOrder(ctx context.Context, user, orderID string) (Order, error) {
	o, err := scanOrder(p.tx.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 AND created_by=$2 FOR UPDATE`, orderID, user))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, mapPgErr(err)
	}
	return o, nil
}

func (p *pgTx) CurrentReservations(ctx context.Context, orderID string) (map[string]int, error) {
	rows, err := p.tx.Query(ctx,
		`SELECT product_id, quantity FROM ordered_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	set := make(map[string]int)
	for rows.Next() {
		var id string
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		set[id] += qty
	}
	return set, rows.Err()
}

func (p *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	err := p.tx.QueryRow(ctx, `
		INSERT INTO orders(id, order_token, date, customer_id, status, total_items, created_by)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderToken, o.Date, o.CustomerID, o.Status, o.CreatedBy).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return mapPgErr(err)
	}
	return nil
}

func (p *pgTx) SaveOrder(ctx context.Context, o *Order) error {
	err := p.tx.QueryRow(ctx, `
		UPDATE orders SET customer_id=$2, date=$3, status=$4, total_items=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		o.ID, o.CustomerID, o.Date, o.Status, o.TotalItems).Scan(&o.UpdatedAt)
	if err != nil {
		return mapPgErr(err)
	}
	return nil
}

func (p *pgTx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := p.tx.Exec(ctx, `DELETE FROM ordered_items WHERE order_id=$1`, orderID); err != nil {
		return mapPgErr(err)
	}
	if _, err := p.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
		return mapPgErr(err)
	}
	return nil
}

// ReplaceItems rewrites the order's item rows, one per aggregated product,
// with the product's current price as the snapshot. Returns the rows plus the
// summed quantity.
func (p *pgTx) ReplaceItems(ctx context.Context, orderID string, agg map[string]int) ([]OrderedItem, int, error) {
	if _, err := p.tx.Exec(ctx, `DELETE FROM ordered_items WHERE order_id=$1`, orderID); err != nil {
		return nil, 0, mapPgErr(err)
	}

	items := make([]OrderedItem, 0, len(agg))
	total := 0
	for _, productID := range inventory.SortedProducts(inventory.ReserveDelta(agg)) {
		qty := agg[productID]
		it := OrderedItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  qty,
		}
		if err := p.tx.QueryRow(ctx,
			`SELECT name, price FROM products WHERE id=$1`, productID).
			Scan(&it.ProductName, &it.PriceAtOrderTime); err != nil {
			return nil, 0, mapPgErr(err)
		}
		if _, err := p.tx.Exec(ctx, `
			INSERT INTO ordered_items(id, order_id, product_id, quantity, price_at_order_time)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, orderID, productID, qty, it.PriceAtOrderTime); err != nil {
			return nil, 0, mapPgErr(err)
		}
		items = append(items, it)
		total += qty
	}
	return items, total, nil
}

func (p *pgTx) AddUnitsSold(ctx context.Context, productID string, qty int) error {
	if _, err := p.tx.Exec(ctx,
		`UPDATE products SET units_sold = units_sold + $2 WHERE id=$1`, productID, qty); err != nil {
		return mapPgErr(err)
	}
	return nil
}

func (p *pgTx) OrderItems(ctx context.Context, orderID string) ([]OrderedItem, error) {
	rows, err := p.tx.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price_at_order_time
		FROM ordered_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY p.id`, orderID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	var items []OrderedItem
	for rows.Next() {
		var it OrderedItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.PriceAtOrderTime); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
