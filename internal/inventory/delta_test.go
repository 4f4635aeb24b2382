package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserveDelta(t *testing.T) {
	d := ReserveDelta(map[string]int{"p1": 2, "p2": 3})
	assert.Equal(t, DeltaSet{"p1": -2, "p2": -3}, d)
}

func TestReleaseDelta(t *testing.T) {
	d := ReleaseDelta(map[string]int{"p1": 4, "p2": 1})
	assert.Equal(t, DeltaSet{"p1": 4, "p2": 1}, d)
}

func TestUpdateDeltaNetsPerProduct(t *testing.T) {
	// old 5 -> new 3 is a single +2, never +5 then -3.
	d := UpdateDelta(map[string]int{"p1": 5}, map[string]int{"p1": 3})
	assert.Equal(t, DeltaSet{"p1": 2}, d)
}

func TestUpdateDeltaDropsUnchangedProducts(t *testing.T) {
	d := UpdateDelta(
		map[string]int{"p1": 5, "p2": 2},
		map[string]int{"p1": 5, "p3": 1},
	)
	assert.Equal(t, DeltaSet{"p2": 2, "p3": -1}, d)
}

func TestUpdateDeltaFromEmpty(t *testing.T) {
	d := UpdateDelta(nil, map[string]int{"p1": 2})
	assert.Equal(t, DeltaSet{"p1": -2}, d)
}

func TestSortedProductsIsAscending(t *testing.T) {
	d := DeltaSet{"b": 1, "a": -1, "c": 2}
	assert.Equal(t, []string{"a", "b", "c"}, SortedProducts(d))
}
