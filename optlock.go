package hybtree

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Bit layout of the 64-bit OptLock word: bit 0 is obsolete, bit 1 is locked,
// bits 2..63 are a monotonically increasing version. write_unlock adds
// lockedBit to the word: if the lock bit is set this clears it and carries
// one into the version field in the same atomic add, which is the whole
// point of reserving bit 1 rather than a high bit.
const (
	obsoleteBit uint64 = 1 << 0
	lockedBit   uint64 = 1 << 1
)

// spinAttempts is how many busy-spin retries a restart loop performs before
// falling back to runtime.Gosched, per spec.md's "spin-pause for the first
// few attempts, OS-level yield thereafter".
const spinAttempts = 4

// OptLock is the single 64-bit atomic word behind Optimistic Lock Coupling.
// Readers validate by version instead of blocking; writers take the word
// for the duration of a single node mutation.
type OptLock struct {
	word atomic.Uint64

	// _ pads the lock to its own cache line: adjacent sibling nodes in a
	// leaf or inner array would otherwise false-share a line between a
	// writer's CAS and a reader's plain load.
	_ cpu.CacheLinePad
}

// ReadLockOrRestart loads the current word. If the node is locked or
// obsolete it signals restart; otherwise the returned version is later
// passed to ReadUnlockOrRestart or UpgradeToWriteLockOrRestart.
func (l *OptLock) ReadLockOrRestart() (version uint64, restart bool) {
	v := l.word.Load()
	if v&(lockedBit|obsoleteBit) != 0 {
		return 0, true
	}
	return v, false
}

// ReadUnlockOrRestart re-validates a previously observed version. A mismatch
// means the node was mutated (or went obsolete) since ReadLockOrRestart and
// the caller must restart its whole operation.
func (l *OptLock) ReadUnlockOrRestart(version uint64) (restart bool) {
	return l.word.Load() != version
}

// UpgradeToWriteLockOrRestart attempts to take exclusive ownership from a
// previously observed unlocked version. Restart indicates a concurrent
// writer or obsolescence raced ahead.
func (l *OptLock) UpgradeToWriteLockOrRestart(version uint64) (restart bool) {
	return !l.word.CompareAndSwap(version, version+lockedBit)
}

// WriteUnlock releases a held write lock, clearing the locked bit and
// bumping the version in one atomic step.
func (l *OptLock) WriteUnlock() {
	l.word.Add(lockedBit)
}

// WriteUnlockObsolete releases a held write lock and marks the node
// permanently obsolete; any reader holding a version across this call will
// fail its next validation.
func (l *OptLock) WriteUnlockObsolete() {
	l.word.Add(lockedBit + obsoleteBit)
}

// IsObsolete reports whether a version snapshot observed an obsolete node.
func IsObsolete(version uint64) bool {
	return version&obsoleteBit != 0
}

// restarter backs the "goto restart" control flow every OLC operation needs:
// a labeled outer loop is replaced with an explicit counter that decides
// between a busy spin and an OS yield between attempts.
type restarter struct {
	attempt int
}

// yield is called once per failed attempt, immediately before the operation
// restarts from the top.
func (r *restarter) yield() {
	r.attempt++
	if r.attempt <= spinAttempts {
		for i := 0; i < r.attempt*8; i++ {
			// busy spin
		}
		return
	}
	runtime.Gosched()
}
