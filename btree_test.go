package hybtree

import (
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) *Tree[int, int] {
	t.Helper()
	return New[int, int]()
}

// TestTreeInsertLookupSimple follows spec.md's S1.
func TestTreeInsertLookupSimple(t *testing.T) {
	tree := newTestTree(t)
	tree.Insert(0, 0)

	v, ok := tree.Lookup(0)
	require.True(t, ok)
	require.Equal(t, 0, v)

	_, ok = tree.Lookup(1)
	require.False(t, ok)
}

func TestTreeInsertOverwrite(t *testing.T) {
	tree := newTestTree(t)
	tree.Insert(5, 1)
	tree.Insert(5, 2)

	v, ok := tree.Lookup(5)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

// TestTreeSplitsUnderLoad inserts enough keys to force many leaf splits
// (not enough to split an inner node), then verifies every key is still
// reachable.
func TestTreeSplitsUnderLoad(t *testing.T) {
	tree := newTestTree(t)
	const n = 5000
	for i := 0; i < n; i++ {
		tree.Insert(i, i*2)
	}
	for i := 0; i < n; i++ {
		v, ok := tree.Lookup(i)
		require.True(t, ok, "key %d", i)
		require.Equal(t, i*2, v)
	}
}

// TestTreeRandomWorkload follows spec.md's S2, at reduced scale.
func TestTreeRandomWorkload(t *testing.T) {
	tree := newTestTree(t)
	rng := rand.New(rand.NewSource(1))

	const n = 20000
	keys := make(map[int]int, n)
	for len(keys) < n {
		k := rng.Int()
		keys[k] = rng.Int()
	}
	for k, v := range keys {
		tree.Insert(k, v)
	}
	for k, v := range keys {
		got, ok := tree.Lookup(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

// TestTreeScanOrdered chunks through a multi-leaf tree using Scan's
// per-leaf-chunk contract (spec.md §4.5.8): each call copies at most n
// values starting at the smallest key >= k, stopping at the end of that
// leaf, and the caller advances k by the count returned to get the rest.
// Keys are inserted with insertPlain so that every one of them lives in the
// tree: Scan does not read the Hot Cache.
func TestTreeScanOrdered(t *testing.T) {
	tree := newTestTree(t)
	rng := rand.New(rand.NewSource(2))

	const n = 2000
	perm := rng.Perm(n)
	for _, k := range perm {
		tree.insertPlain(k, k*10)
	}

	var got []int
	k := 500
	for k < 1000 {
		out := make([]int, 64)
		count := tree.Scan(k, len(out), out)
		require.Greater(t, count, 0, "scan must make progress within [500, 1000)")
		for i := 0; i < count && k+i < 1000; i++ {
			got = append(got, out[i])
		}
		k += count
	}

	want := make([]int, 0, 500)
	for v := 500; v < 1000; v++ {
		want = append(want, v*10)
	}
	require.Equal(t, want, got)
}

// TestTreeScanRespectsCountAndBufferLimits follows spec.md §6's
// scan(k, range, out[]) contract directly: the count returned is bounded by
// both n and len(out).
func TestTreeScanRespectsCountAndBufferLimits(t *testing.T) {
	tree := newTestTree(t)
	for i := 0; i < 100; i++ {
		tree.Insert(i, i)
	}

	out := make([]int, 5)
	count := tree.Scan(0, 5, out)
	require.Equal(t, 5, count)
	require.Equal(t, []int{0, 1, 2, 3, 4}, out)

	small := make([]int, 3)
	count = tree.Scan(0, 100, small)
	require.Equal(t, 3, count, "bounded by len(out) even though n asked for more")
	require.Equal(t, []int{0, 1, 2}, small)

	out = make([]int, 10)
	count = tree.Scan(97, 10, out)
	require.Equal(t, 3, count, "stops at the last live key, not a full buffer")
	require.Equal(t, []int{97, 98, 99}, out[:count])
}

// TestTreeLeafFullBeforeSplit follows spec.md's P9: inserting exactly
// LeafMax sorted keys into a fresh tree leaves the root leaf full but
// unsplit; the LeafMax+1-th key triggers a split and a new Inner root.
func TestTreeLeafFullBeforeSplit(t *testing.T) {
	tree := newTestTree(t)
	max := leafMax[int, int]()

	for i := 0; i < max; i++ {
		tree.Insert(i, i)
	}
	root := tree.root.Load()
	require.True(t, root.isLeaf(), "root must still be a single leaf")
	require.Equal(t, max, root.count, "root leaf must be exactly full")

	tree.Insert(max, max)
	root = tree.root.Load()
	require.False(t, root.isLeaf(), "root must have split into a new Inner node")
	require.Equal(t, 1, root.count, "new root holds exactly one separator")

	for i := 0; i <= max; i++ {
		v, ok := tree.Lookup(i)
		require.True(t, ok, "key %d", i)
		require.Equal(t, i, v)
	}
}

// TestTreeOverwriteLoop follows spec.md's S3, at reduced scale: the same set
// of keys is overwritten with fresh values across many passes, and every
// key must read back the value from its most recent pass.
func TestTreeOverwriteLoop(t *testing.T) {
	tree := newTestTree(t)
	rng := rand.New(rand.NewSource(4))

	const n = 200
	const passes = 20

	keys := make([]int, 0, n)
	seen := make(map[int]bool, n)
	for len(seen) < n {
		k := rng.Int()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	values := make(map[int]int, n)
	for pass := 0; pass < passes; pass++ {
		for _, k := range keys {
			v := rng.Int()
			values[k] = v
			tree.Insert(k, v)
		}
		for _, k := range keys {
			got, ok := tree.Lookup(k)
			require.True(t, ok, "pass %d key %d", pass, k)
			require.Equal(t, values[k], got, "pass %d key %d", pass, k)
		}
	}
}

// TestTreeConcurrentSequential is a reduced-scale variant of spec.md's S4:
// many goroutines concurrently insert disjoint ascending runs, and once all
// of them finish every key must read back the value written for it.
func TestTreeConcurrentSequential(t *testing.T) {
	tree := newTestTree(t)
	const goroutines = 8
	const perGoroutine = 2000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				tree.Insert(base+i, base+i)
			}
		}(g * perGoroutine)
	}
	wg.Wait()

	for g := 0; g < goroutines; g++ {
		base := g * perGoroutine
		for i := 0; i < perGoroutine; i++ {
			v, ok := tree.Lookup(base + i)
			require.True(t, ok)
			require.Equal(t, base+i, v)
		}
	}
}

func TestNodeMergeFromRightAgainstSort(t *testing.T) {
	n := newLeafNode[int, int](20)
	base := []int{2, 4, 6, 8, 10}
	for _, k := range base {
		n.insertSorted(k, k)
	}

	batch := []KV[int, int]{{Key: 1, Value: 1}, {Key: 5, Value: 5}, {Key: 9, Value: 9}, {Key: 11, Value: 11}}
	consumed := n.mergeFromRight(batch)
	require.Equal(t, len(batch), consumed)

	want := []int{1, 2, 4, 5, 6, 8, 9, 10, 11}
	require.Equal(t, want, n.keys[:n.count])
	require.True(t, sort.IntsAreSorted(n.keys[:n.count]))
}
