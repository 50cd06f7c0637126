package hybtree

import "cmp"

// insertSite is what findInsertSite hands back to the Coordinator: a
// read-locked leaf plus enough surrounding context (§4.5.7's leaf range
// estimate) to decide whether this insert should go through the Hot Cache
// instead of landing directly in the tree.
type insertSite[K cmp.Ordered, V any] struct {
	leaf        *node[K, V]
	leafVersion uint64

	lo, hi     K
	rangeKnown bool
}

// treeLookup performs the OLC read-only descent of spec.md §4.5.3: read-lock
// down to the leaf holding k, validating at every step, and restart the
// whole walk on any validation failure.
func (t *Tree[K, V]) treeLookup(k K) (V, bool) {
	var r restarter
	for {
		v, found, restart := t.tryLookup(k)
		if !restart {
			return v, found
		}
		r.yield()
	}
}

func (t *Tree[K, V]) tryLookup(k K) (value V, found bool, restart bool) {
	cur := t.root.Load()
	curVersion, rst := cur.lock.ReadLockOrRestart()
	if rst {
		return value, false, true
	}

	for !cur.isLeaf() {
		pos := cur.lowerBound(k)
		child := cur.children[pos]

		if cur.lock.ReadUnlockOrRestart(curVersion) {
			return value, false, true
		}
		childVersion, rst := child.lock.ReadLockOrRestart()
		if rst {
			return value, false, true
		}
		cur, curVersion = child, childVersion
	}

	pos := cur.lowerBound(k)
	if pos < cur.count && cur.keys[pos] == k {
		value, found = cur.values[pos], true
	}
	if cur.lock.ReadUnlockOrRestart(curVersion) {
		return value, false, true
	}
	return value, found, false
}

// findInsertSite descends toward k as a reader, splitting any node it meets
// along the way that is already full before entering it (spec.md §4.5.4's
// "eager top-down split": a writer descending for insert never holds more
// than two node locks at once, because it never descends into a node it
// might also need to split).
//
// While descending through an inner node it also records the leaf range
// estimate of §4.5.7: the separators bracketing the child it is about to
// enter, or a synthetic bound built from leafMax when that child is the
// leftmost or rightmost.
func (t *Tree[K, V]) findInsertSite(k K) (insertSite[K, V], bool) {
	var site insertSite[K, V]

	cur := t.root.Load()
	curVersion, rst := cur.lock.ReadLockOrRestart()
	if rst {
		return site, true
	}

	var parent *node[K, V]
	var parentVersion uint64
	hasParent := false

	for {
		if cur.isFull() {
			return site, t.splitNode(parent, parentVersion, hasParent, cur, curVersion)
		}
		if cur.isLeaf() {
			break
		}

		pos := cur.lowerBound(k)
		child := cur.children[pos]

		if cur.lock.ReadUnlockOrRestart(curVersion) {
			return site, true
		}
		childVersion, rst := child.lock.ReadLockOrRestart()
		if rst {
			return site, true
		}

		switch {
		case pos > 0 && pos < cur.count:
			site.lo, site.hi, site.rangeKnown = cur.keys[pos-1], cur.keys[pos], true
		case pos == 0 && cur.count > 0:
			site.hi = cur.keys[0]
			site.lo = leftSpan(site.hi, t.leafMax)
			site.rangeKnown = true
		case cur.count > 0:
			site.lo = cur.keys[cur.count-1]
			site.hi = rightSpan(site.lo, t.leafMax)
			site.rangeKnown = true
		}

		parent, parentVersion, hasParent = cur, curVersion, true
		cur, curVersion = child, childVersion
	}

	site.leaf, site.leafVersion = cur, curVersion
	return site, false
}

// splitNode runs the write side of the eager-split protocol: upgrade cur
// (and its parent, if any) to write locks, split cur in two, and either
// insert the new separator into the parent or grow a new root. The caller
// always restarts its descent afterward, since the shape it was walking no
// longer exists.
func (t *Tree[K, V]) splitNode(parent *node[K, V], parentVersion uint64, hasParent bool, cur *node[K, V], curVersion uint64) bool {
	if hasParent {
		if parent.lock.UpgradeToWriteLockOrRestart(parentVersion) {
			return true
		}
		if cur.lock.UpgradeToWriteLockOrRestart(curVersion) {
			parent.lock.WriteUnlock()
			return true
		}
	} else if cur.lock.UpgradeToWriteLockOrRestart(curVersion) {
		return true
	}

	var sibling *node[K, V]
	var sep K
	if cur.isLeaf() {
		sibling, sep = cur.splitLeaf()
	} else {
		sibling, sep = cur.splitInner()
	}

	if hasParent {
		parent.insertChild(sep, sibling)
		cur.lock.WriteUnlock()
		parent.lock.WriteUnlock()
		return true
	}

	newRoot := newInnerNode[K, V](t.innerMax)
	newRoot.keys[0] = sep
	newRoot.children[0] = cur
	newRoot.children[1] = sibling
	newRoot.count = 1
	t.root.Store(newRoot)
	cur.lock.WriteUnlock()
	return true
}

// insertPlain is the cold path of spec.md §4.5.4: land (k, v) directly in
// the tree, splitting eagerly on the way down.
func (t *Tree[K, V]) insertPlain(k K, v V) {
	var r restarter
	for {
		site, restart := t.findInsertSite(k)
		if restart {
			r.yield()
			continue
		}
		if site.leaf.lock.UpgradeToWriteLockOrRestart(site.leafVersion) {
			r.yield()
			continue
		}
		site.leaf.insertSorted(k, v)
		site.leaf.lock.WriteUnlock()
		return
	}
}

// Scan descends to the leaf containing lower_bound(k) and copies at most n
// values, starting there, into out in ascending key order, stopping at the
// end of that leaf — it does not continue into a right sibling, since nodes
// keep no sibling pointers (spec.md §4.5.8). It returns the number of values
// copied (0 <= count <= min(n, len(out))); a caller wanting more repeats the
// call with a later k.
//
// Scan never consults the Hot Cache: a key in a hot range that has not yet
// been purged is invisible to it. This is a documented limitation carried
// from the source (spec.md §9), not a contract — reconciling two ordered
// sources on every step would give up the single sequential leaf read this
// is built around.
func (t *Tree[K, V]) Scan(k K, n int, out []V) int {
	var r restarter
	for {
		count, restart := t.tryScan(k, n, out)
		if !restart {
			return count
		}
		r.yield()
	}
}

func (t *Tree[K, V]) tryScan(k K, n int, out []V) (count int, restart bool) {
	cur := t.root.Load()
	curVersion, rst := cur.lock.ReadLockOrRestart()
	if rst {
		return 0, true
	}

	for !cur.isLeaf() {
		pos := cur.lowerBound(k)
		child := cur.children[pos]

		if cur.lock.ReadUnlockOrRestart(curVersion) {
			return 0, true
		}
		childVersion, rst := child.lock.ReadLockOrRestart()
		if rst {
			return 0, true
		}
		cur, curVersion = child, childVersion
	}

	pos := cur.lowerBound(k)
	limit := min(n, len(out))
	for count < limit && pos+count < cur.count {
		out[count] = cur.values[pos+count]
		count++
	}
	if cur.lock.ReadUnlockOrRestart(curVersion) {
		return 0, true
	}
	return count, false
}
