package hybtree

import (
	"cmp"
	"errors"
	"sync"
	"sync/atomic"
)

// touchResult is the outcome of WorkingSet.Touch.
type touchResult int

const (
	// touchCold means the range is not (and was not made) hot; the caller
	// must fall back to a plain tree insert.
	touchCold touchResult = iota
	// touchHot means the key's range is tracked by the policy; the caller
	// should service the operation via the hot cache.
	touchHot
)

// WorkingSet is a fixed-capacity LRU over at most capacity disjoint hot key
// ranges. It decides which ranges are "hot" (redirected through the cache)
// and which to purge back into the tree when full.
//
// The per-slot recency counters are plain atomics updated outside any lock
// on the common path (Touch on an already-hot range) — a benign race
// between two concurrent touches of the same slot can only misorder LRU
// recency, never violate disjointness or totality. Slot allocation,
// overlap rejection, and removal always run under mu.
type WorkingSet[K cmp.Ordered] struct {
	capacity int

	mu       sync.Mutex
	rangeMap *RangeMap[K, int] // range -> slot index, guarded by mu

	lo, hi []K
	ctr    []atomic.Uint64 // per-slot recency stamp; 0 means the slot is free

	next atomic.Uint64 // monotonically increasing MRU stamp, starts at 1

	size       atomic.Int32
	needsPurge atomic.Bool
}

// NewWorkingSet creates a policy with room for at most capacity hot ranges.
func NewWorkingSet[K cmp.Ordered](capacity int) *WorkingSet[K] {
	ws := &WorkingSet[K]{
		capacity: capacity,
		rangeMap: NewRangeMap[K, int](),
		lo:       make([]K, capacity),
		hi:       make([]K, capacity),
		ctr:      make([]atomic.Uint64, capacity),
	}
	ws.next.Store(1)
	return ws
}

// Touch registers that k, whose leaf range estimate is [lo, hi), was just
// accessed. If k already lies in a hot range its recency is bumped and
// touchHot is returned. If the policy is full, a purge is flagged and
// touchCold is returned. If k lies outside [lo, hi), or [lo, hi) overlaps a
// hot range, touchCold is returned. Otherwise [lo, hi) is installed as hot.
func (ws *WorkingSet[K]) Touch(lo, hi, k K) touchResult {
	if slot, ok := ws.rangeMap.Find(k); ok {
		ws.bump(slot)
		return touchHot
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if slot, ok := ws.rangeMap.Find(k); ok {
		ws.bump(slot)
		return touchHot
	}

	if int(ws.size.Load()) >= ws.capacity {
		ws.needsPurge.Store(true)
		return touchCold
	}

	slot := ws.freeSlotLocked()
	if slot < 0 {
		ws.needsPurge.Store(true)
		return touchCold
	}

	// A key outside the estimate would land in the Hot Cache without any
	// hot range covering it, so no purge would ever move it to the tree.
	if k < lo || k >= hi {
		return touchCold
	}

	// The policy conservatively rejects a range that overlaps one already
	// tracked (weird tree-edge spans can do this, per spec.md §4.3) rather
	// than merging; RangeMap.Insert is the one place that actually checks
	// disjointness, so ErrRangeOverlap here just means "stay cold".
	if err := ws.rangeMap.Insert(lo, hi, slot); errors.Is(err, ErrRangeOverlap) {
		return touchCold
	}

	ws.lo[slot], ws.hi[slot] = lo, hi
	ws.size.Add(1)
	ws.bump(slot)
	return touchHot
}

func (ws *WorkingSet[K]) bump(slot int) {
	ws.ctr[slot].Store(ws.next.Add(1) - 1)
}

// NeedsPurge reports whether the policy is full and a touch has been
// rejected since the last purge.
func (ws *WorkingSet[K]) NeedsPurge() bool {
	return int(ws.size.Load()) >= ws.capacity && ws.needsPurge.Load()
}

// PurgeRange returns the range with the smallest positive recency counter —
// the least-recently-touched hot range. It does not look at the NeedsPurge
// flag; it must not be called when no range is tracked (Size() == 0).
func (ws *WorkingSet[K]) PurgeRange() (lo, hi K, slot int) {
	minVal := uint64(0)
	minSlot := -1
	for i := 0; i < ws.capacity; i++ {
		v := ws.ctr[i].Load()
		if v == 0 {
			continue
		}
		if minSlot < 0 || v < minVal {
			minVal, minSlot = v, i
		}
	}
	return ws.lo[minSlot], ws.hi[minSlot], minSlot
}

// Remove evicts the range starting exactly at lo, freeing its slot. Callers
// must already hold the Coordinator's structure write lock.
func (ws *WorkingSet[K]) Remove(lo, hi K) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	slot, ok := ws.rangeMap.Find(lo)
	if !ok {
		return
	}
	ws.ctr[slot].Store(0)
	ws.rangeMap.Remove(lo, hi)
	ws.size.Add(-1)
	ws.needsPurge.Store(false)
}

func (ws *WorkingSet[K]) freeSlotLocked() int {
	for i := 0; i < ws.capacity; i++ {
		if ws.ctr[i].Load() == 0 {
			return i
		}
	}
	return -1
}

// Size returns the number of hot ranges currently tracked.
func (ws *WorkingSet[K]) Size() int {
	return int(ws.size.Load())
}
