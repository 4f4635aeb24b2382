package inventory

import "sort"

// DeltaSet maps product ID to a signed stock change: negative reserves,
// positive releases. One entry per product, applied atomically as a unit.
type DeltaSet map[string]int

// ReserveDelta turns an aggregated request into pure reservations.
func ReserveDelta(agg map[string]int) DeltaSet {
	d := make(DeltaSet, len(agg))
	for id, qty := range agg {
		d[id] = -qty
	}
	return d
}

// ReleaseDelta returns the full reservation set of an order as releases,
// e.g. for cancellation.
func ReleaseDelta(current map[string]int) DeltaSet {
	d := make(DeltaSet, len(current))
	for id, qty := range current {
		d[id] = qty
	}
	return d
}

// UpdateDelta nets an order's current reservation set against its requested
// replacement. A product present in both sides collapses to a single signed
// entry (old 5 -> new 3 is +2, never +5 then -3), so an update is one
// all-or-nothing transaction with no intermediate stock state. Products that
// net to zero are dropped.
func UpdateDelta(current, next map[string]int) DeltaSet {
	d := make(DeltaSet, len(current)+len(next))
	for id, qty := range current {
		d[id] += qty
	}
	for id, qty := range next {
		d[id] -= qty
	}
	for id, n := range d {
		if n == 0 {
			delete(d, id)
		}
	}
	return d
}

// SortedProducts returns the delta set's product IDs in ascending order.
// Every transaction locks products in this order, so two transactions over
// overlapping product sets cannot deadlock on each other.
func SortedProducts(d DeltaSet) []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
