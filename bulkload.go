package hybtree

// bulkInsert is purge's write side (spec.md §4.5.6): entries must already be
// sorted by key and hold no duplicates. Bulk insert happens before the Hot
// Cache erase that follows it in the Coordinator's purge step, so a reader
// racing the purge always finds a key in at least one of the two places —
// the totality invariant never lapses, even mid-purge.
//
// Each target leaf absorbs as many leading entries as mergeFromRight can fit
// in one pass; anything a leaf can't absorb spills to insertPlain, which
// splits the tree on demand exactly as an ordinary write would. The entry
// at the batch boundary (the first one not below the leaf's estimated upper
// bound) also goes through one insertPlain, so every pass makes progress.
func (t *Tree[K, V]) bulkInsert(entries []KV[K, V]) {
	i := 0
	for i < len(entries) {
		site, restart := t.findInsertSite(entries[i].Key)
		if restart {
			continue
		}
		if site.leaf.lock.UpgradeToWriteLockOrRestart(site.leafVersion) {
			continue
		}

		j := i
		for j < len(entries) && (!site.rangeKnown || entries[j].Key < site.hi) {
			j++
		}

		consumed := site.leaf.mergeFromRight(entries[i:j])
		site.leaf.lock.WriteUnlock()
		i += consumed

		for i < j {
			t.insertPlain(entries[i].Key, entries[i].Value)
			i++
		}
		if i < len(entries) {
			t.insertPlain(entries[i].Key, entries[i].Value)
			i++
		}
	}
}
