package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMergesDuplicates(t *testing.T) {
	agg, err := Aggregate([]LineItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 5, "p2": 1}, agg)
}

func TestAggregateRejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, -100} {
		_, err := Aggregate([]LineItem{{ProductID: "p1", Quantity: qty}})
		assert.ErrorIs(t, err, ErrInvalidLineItem, "quantity %d", qty)
	}
}

func TestAggregateRejectsZeroEvenWhenMerged(t *testing.T) {
	// A zero quantity is an error, not a silently dropped entry.
	_, err := Aggregate([]LineItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p1", Quantity: 0},
	})
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestAggregateRejectsMissingProduct(t *testing.T) {
	_, err := Aggregate([]LineItem{{Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestAggregateRejectsEmptyOrder(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}
