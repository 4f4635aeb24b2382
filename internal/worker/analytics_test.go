package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/janhvii19/Inventory-Order-Management-System/internal/kafka"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/orders"
	"github.com/janhvii19/Inventory-Order-Management-System/internal/redisx"
)

type fakeStore struct {
	kv       map[string]string
	zsets    map[string]map[string]float64
	sets     map[string]map[string]bool
	counters map[string]float64

	failZIncrBy int // fail the next n ZIncrBy calls
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		kv:       make(map[string]string),
		zsets:    make(map[string]map[string]float64),
		sets:     make(map[string]map[string]bool),
		counters: make(map[string]float64),
	}
}

func (s *fakeStore) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if _, ok := s.kv[key]; ok {
		return false, nil
	}
	s.kv[key] = value
	return true, nil
}

func (s *fakeStore) Del(_ context.Context, key string) error {
	delete(s.kv, key)
	return nil
}

func (s *fakeStore) ZIncrBy(_ context.Context, key string, incr float64, member string) error {
	if s.failZIncrBy > 0 {
		s.failZIncrBy--
		return errors.New("redis down")
	}
	if s.zsets[key] == nil {
		s.zsets[key] = make(map[string]float64)
	}
	s.zsets[key][member] += incr
	return nil
}

func (s *fakeStore) IncrByFloat(_ context.Context, key string, incr float64) error {
	s.counters[key] += incr
	return nil
}

func (s *fakeStore) SAdd(_ context.Context, key, member string) error {
	if s.sets[key] == nil {
		s.sets[key] = make(map[string]bool)
	}
	s.sets[key][member] = true
	return nil
}

func (s *fakeStore) SRem(_ context.Context, key, member string) error {
	delete(s.sets[key], member)
	return nil
}

func orderEvent(eventID, eventType string, levels map[string]int) kafkago.Message {
	occurred := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   occurred,
		Payload: kafkax.MustMarshal(orders.OrderMutatedPayload{
			OrderID:    "o1",
			TotalItems: 3,
			Total:      decimal.RequireFromString("29.97"),
			Items: []orders.EventItem{
				{ProductID: "p1", Quantity: 3, Price: decimal.RequireFromString("9.99")},
			},
			StockLevels: levels,
			OccurredAt:  occurred,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func newAnalytics(s Store) *Analytics {
	return &Analytics{Store: s, ServiceName: "analytics-test", LowStockThreshold: 10}
}

func TestHandleCreatedFeedsAggregates(t *testing.T) {
	s := newFakeStore()
	a := newAnalytics(s)

	err := a.Handle(context.Background(), orderEvent("ev-1", orders.EventOrderCreated, map[string]int{"p1": 7}))
	require.NoError(t, err)

	assert.Equal(t, 3.0, s.zsets[redisx.KeyTopSellers]["p1"])
	assert.InDelta(t, 29.97, s.counters[fmt.Sprintf(redisx.KeyMonthRevenue, "2025-03")], 0.001)
	assert.True(t, s.sets[redisx.KeyLowStock]["p1"]) // 7 <= threshold 10
}

func TestHandleStockAboveThresholdLeavesLowStockSet(t *testing.T) {
	s := newFakeStore()
	a := newAnalytics(s)

	require.NoError(t, a.Handle(context.Background(),
		orderEvent("ev-1", orders.EventOrderCreated, map[string]int{"p1": 4})))
	require.True(t, s.sets[redisx.KeyLowStock]["p1"])

	// A release takes the product back out of the low-stock set.
	require.NoError(t, a.Handle(context.Background(),
		orderEvent("ev-2", orders.EventOrderCanceled, map[string]int{"p1": 25})))
	assert.False(t, s.sets[redisx.KeyLowStock]["p1"])
}

func TestHandleUpdatedDoesNotCountSales(t *testing.T) {
	s := newFakeStore()
	a := newAnalytics(s)

	require.NoError(t, a.Handle(context.Background(),
		orderEvent("ev-1", orders.EventOrderUpdated, map[string]int{"p1": 2})))

	assert.Empty(t, s.zsets[redisx.KeyTopSellers])
	assert.Empty(t, s.counters)
	assert.True(t, s.sets[redisx.KeyLowStock]["p1"])
}

func TestHandleDedupsRedeliveredEvent(t *testing.T) {
	s := newFakeStore()
	a := newAnalytics(s)
	ev := orderEvent("ev-1", orders.EventOrderCreated, map[string]int{"p1": 7})

	require.NoError(t, a.Handle(context.Background(), ev))
	require.NoError(t, a.Handle(context.Background(), ev))

	assert.Equal(t, 3.0, s.zsets[redisx.KeyTopSellers]["p1"])
}

func TestHandleReleasesClaimOnFailure(t *testing.T) {
	// A failure while applying must not leave the dedup marker behind, or the
	// redelivery would be a silent no-op and the event's effect lost.
	s := newFakeStore()
	s.failZIncrBy = 1
	a := newAnalytics(s)
	ev := orderEvent("ev-1", orders.EventOrderCreated, map[string]int{"p1": 7})

	require.Error(t, a.Handle(context.Background(), ev))
	assert.Empty(t, s.kv)

	// The redelivery succeeds and the aggregates land exactly once.
	require.NoError(t, a.Handle(context.Background(), ev))
	assert.Equal(t, 3.0, s.zsets[redisx.KeyTopSellers]["p1"])
	assert.InDelta(t, 29.97, s.counters[fmt.Sprintf(redisx.KeyMonthRevenue, "2025-03")], 0.001)
}
