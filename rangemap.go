package hybtree

import (
	"cmp"

	"github.com/google/btree"
)

// rangeMapDegree is the B-tree degree backing RangeMap. The Working-Set
// policy never holds more than a handful of ranges, so any degree is fine;
// this mirrors the teacher's tx.go choice for its own google/btree.BTreeG
// index of in-flight pages.
const rangeMapDegree = 32

// rangeEntry is one [lo, hi) -> payload mapping, ordered by lo.
type rangeEntry[K cmp.Ordered, T any] struct {
	lo, hi K
	value  T
}

// RangeMap is an ordered container of disjoint half-open ranges. It is not
// thread-safe on its own; concurrency is managed by callers (the
// Working-Set policy's mutex, or the Coordinator's structure lock).
type RangeMap[K cmp.Ordered, T any] struct {
	tree *btree.BTreeG[rangeEntry[K, T]]
}

// NewRangeMap creates an empty RangeMap.
func NewRangeMap[K cmp.Ordered, T any]() *RangeMap[K, T] {
	less := func(a, b rangeEntry[K, T]) bool { return a.lo < b.lo }
	return &RangeMap[K, T]{tree: btree.NewG(rangeMapDegree, less)}
}

// Insert registers [lo, hi) -> v. The caller guarantees lo < hi. Returns
// ErrRangeOverlap, leaving the map unchanged, if [lo, hi) overlaps a range
// already present.
func (m *RangeMap[K, T]) Insert(lo, hi K, v T) error {
	if m.overlaps(lo, hi) {
		return ErrRangeOverlap
	}
	m.tree.ReplaceOrInsert(rangeEntry[K, T]{lo: lo, hi: hi, value: v})
	return nil
}

// overlaps checks the predecessor and successor of lo by lo-order — the only
// two ranges that could possibly overlap [lo, hi) in a map that was disjoint
// before this insert.
func (m *RangeMap[K, T]) overlaps(lo, hi K) bool {
	found := false
	m.tree.DescendLessOrEqual(rangeEntry[K, T]{lo: lo}, func(item rangeEntry[K, T]) bool {
		found = item.hi > lo
		return false
	})
	if found {
		return true
	}
	m.tree.AscendGreaterOrEqual(rangeEntry[K, T]{lo: lo}, func(item rangeEntry[K, T]) bool {
		found = item.lo < hi
		return false
	})
	return found
}

// Find returns the payload of the unique range containing k, if any.
func (m *RangeMap[K, T]) Find(k K) (T, bool) {
	var found rangeEntry[K, T]
	ok := false
	m.tree.DescendLessOrEqual(rangeEntry[K, T]{lo: k}, func(item rangeEntry[K, T]) bool {
		found = item
		ok = true
		return false // at most one candidate: the predecessor by lo
	})
	if !ok || k >= found.hi {
		var zero T
		return zero, false
	}
	return found.value, true
}

// Remove deletes the range starting exactly at lo. The caller guarantees an
// exact match on lo (the hi endpoint is not part of the lookup key).
func (m *RangeMap[K, T]) Remove(lo, hi K) {
	m.tree.Delete(rangeEntry[K, T]{lo: lo, hi: hi})
}

// Len returns the number of ranges currently registered.
func (m *RangeMap[K, T]) Len() int {
	return m.tree.Len()
}
