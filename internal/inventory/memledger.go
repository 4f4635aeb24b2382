package inventory

import (
	"context"
	"sync"
)

// MemLedger is an in-memory ledger with the same linearizability contract as
// the Postgres-backed one: every Apply holds the ledger lock from the first
// read to the last write. Used by the test suite and by local runs without a
// database.
type MemLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

func NewMemLedger(initial map[string]int) *MemLedger {
	m := &MemLedger{stock: make(map[string]int, len(initial))}
	for id, n := range initial {
		m.stock[id] = n
	}
	return m
}

// Apply runs a reservation transaction against the in-memory stock.
func (m *MemLedger) Apply(ctx context.Context, d DeltaSet) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Apply(ctx, memTx{m}, d)
}

// Reserve decrements a single product's stock if enough is available and
// returns the new level.
func (m *MemLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	levels, err := m.Apply(ctx, DeltaSet{productID: -qty})
	if err != nil {
		return 0, err
	}
	return levels[productID], nil
}

// Release returns previously reserved stock and reports the new level.
func (m *MemLedger) Release(ctx context.Context, productID string, qty int) (int, error) {
	levels, err := m.Apply(ctx, DeltaSet{productID: qty})
	if err != nil {
		return 0, err
	}
	return levels[productID], nil
}

// Get reads a product's current stock outside any transaction.
func (m *MemLedger) Get(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[productID]
}

// memTx exposes the locked ledger to Apply. The MemLedger mutex is already
// held for the whole transaction.
type memTx struct{ m *MemLedger }

func (t memTx) Stock(_ context.Context, productID string) (int, error) {
	n, ok := t.m.stock[productID]
	if !ok {
		return 0, invalidItem("unknown product %s", productID)
	}
	return n, nil
}

func (t memTx) SetStock(_ context.Context, productID string, stock int) error {
	t.m.stock[productID] = stock
	return nil
}
