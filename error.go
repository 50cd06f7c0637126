package hybtree

import "errors"

//goland:noinspection GoUnusedGlobalVariable
var (
	// ErrInvalidCapacity is the value New panics with when the hot-range capacity is not positive.
	ErrInvalidCapacity = errors.New("hybtree: hot-range capacity must be positive")

	// ErrRangeOverlap is returned by RangeMap.Insert when the new range
	// overlaps one already present. The Working-Set's Touch checks for it
	// internally and degrades to touchCold; it is never surfaced through
	// Insert/Lookup/Scan.
	ErrRangeOverlap = errors.New("hybtree: overlapping range")
)
