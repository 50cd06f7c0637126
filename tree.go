package hybtree

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

// Tree is the Hybrid Coordinator of spec.md §4.4: it glues an OLC B+ tree, a
// Working-Set hot-range policy, and a Hot Cache into one ordered index.
//
// structMu is the Coordinator's structure lock: ordinary inserts take it as
// readers (they only consult and update the Working-Set/Hot Cache, which
// have their own internal synchronization), while a purge takes it
// exclusively, since a purge's bulk re-insertion and Hot Cache erase must
// run without another insert racing the same hot range underneath it.
// Lookup and Scan never take it — both validate purely through OLC, so they
// stay wait-free with respect to a running purge.
type Tree[K cmp.Ordered, V any] struct {
	root atomic.Pointer[node[K, V]]

	leafMax  int
	innerMax int

	ws *WorkingSet[K]
	hc *HotCache[K, V]

	structMu sync.RWMutex

	logger Logger
}

// New creates an empty Tree. K must be totally ordered (cmp.Ordered); the
// synthetic tree-edge range bounds of spec.md §4.5.7 only have real span
// arithmetic for fixed-width numeric K — see span.go.
func New[K cmp.Ordered, V any](opts ...Option) *Tree[K, V] {
	o := defaultTreeOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.hotRangeCapacity <= 0 {
		panic(ErrInvalidCapacity)
	}

	t := &Tree[K, V]{
		leafMax:  leafMax[K, V](),
		innerMax: innerMax[K](),
		ws:       NewWorkingSet[K](o.hotRangeCapacity),
		hc:       NewHotCache[K, V](o.hotCacheHint),
		logger:   o.logger,
	}
	t.root.Store(newLeafNode[K, V](t.leafMax))
	return t
}

// Insert adds or overwrites the value at k, per spec.md §4.5.4: the
// Coordinator first locates k's enclosing leaf range, hands the key to the
// Working-Set, and routes the write to the Hot Cache if that range is hot or
// becomes hot; otherwise it lands directly in the tree. A purge is triggered
// afterward if the policy reports it is needed.
//
// The leaf located while deciding hot/cold is not reused for the cold
// commit — insertPlain re-descends. That costs one extra walk on the cold
// path in exchange for keeping the hot/cold decision and the tree mutation
// as two independently retryable steps.
func (t *Tree[K, V]) Insert(k K, v V) {
	t.structMu.RLock()

	hot := false
	var r restarter
	for {
		site, restart := t.findInsertSite(k)
		if restart {
			r.yield()
			continue
		}
		if site.rangeKnown && t.ws.Touch(site.lo, site.hi, k) == touchHot {
			t.hc.Insert(k, v)
			hot = true
		}
		break
	}
	t.structMu.RUnlock()

	if !hot {
		t.insertPlain(k, v)
	}

	if t.ws.NeedsPurge() {
		t.purge()
	}
}

// Lookup returns k's value, checking the Hot Cache before the tree per
// spec.md §4.5.3 — when a key is in both places the Hot Cache holds the
// newer value (the tree copy predates its range turning hot), so the first
// hit wins.
func (t *Tree[K, V]) Lookup(k K) (V, bool) {
	if v, ok := t.hc.Find(k); ok {
		return v, true
	}
	return t.treeLookup(k)
}

// Stats reports current Coordinator occupancy, for monitoring and tests.
type Stats struct {
	HotRanges int
	HotKeys   int
}

// Stats returns a snapshot of the Working-Set and Hot Cache occupancy.
func (t *Tree[K, V]) Stats() Stats {
	return Stats{HotRanges: t.ws.Size(), HotKeys: t.hc.Len()}
}

// Close drains every remaining hot range back into the tree so that Lookup
// and Scan are sourced entirely from tree state afterward. A Tree is not
// meant to be used again once Close returns.
func (t *Tree[K, V]) Close() error {
	t.structMu.Lock()
	defer t.structMu.Unlock()

	for t.ws.Size() > 0 {
		lo, hi, _ := t.ws.PurgeRange()
		t.purgeRangeLocked(lo, hi)
	}
	return nil
}

// purge runs the Coordinator's exclusive purge step of spec.md §4.5.6:
// select the least-recently-touched hot range, bulk-insert its entries into
// the tree, then erase them from the Hot Cache. Bulk insert always runs
// before the erase, so a reader racing the purge finds the key in the tree,
// the Hot Cache, or both — never neither.
func (t *Tree[K, V]) purge() {
	t.structMu.Lock()
	defer t.structMu.Unlock()

	if !t.ws.NeedsPurge() {
		return // another writer already purged while we waited for the lock
	}

	lo, hi, _ := t.ws.PurgeRange()
	t.purgeRangeLocked(lo, hi)
	t.logger.Info("purge complete", "count", t.hc.Len())
}

func (t *Tree[K, V]) purgeRangeLocked(lo, hi K) {
	kvs := t.hc.LockTable(lo, hi)
	if len(kvs) > 0 {
		slices.SortFunc(kvs, func(a, b KV[K, V]) int { return cmp.Compare(a.Key, b.Key) })
		t.bulkInsert(kvs)
		for _, kv := range kvs {
			t.hc.Erase(kv.Key)
		}
	}
	t.ws.Remove(lo, hi)
}
