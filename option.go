package hybtree

// DefaultHotRangeCapacity is the number of disjoint hot ranges the
// Working-Set policy tracks before it starts flagging purges, matching the
// source's default N.
const DefaultHotRangeCapacity = 10

// treeOptions configures Tree construction.
type treeOptions struct {
	hotRangeCapacity int
	hotCacheHint     uint32
	logger           Logger
}

func defaultTreeOptions() treeOptions {
	return treeOptions{
		hotRangeCapacity: DefaultHotRangeCapacity,
		hotCacheHint:     4096,
		logger:           DiscardLogger{},
	}
}

// Option configures a Tree using the functional options pattern.
type Option func(*treeOptions)

// WithHotRangeCapacity sets N, the maximum number of disjoint hot ranges the
// Working-Set policy may hold at once. Must be positive.
//
//goland:noinspection GoUnusedExportedFunction
func WithHotRangeCapacity(n int) Option {
	return func(o *treeOptions) {
		o.hotRangeCapacity = n
	}
}

// WithHotCacheSizeHint sizes the hot cache's backing map up front to avoid
// early growth. It is a pre-sizing hint only — the Hot Cache has no eviction
// of its own, so its real bound is the Working-Set policy's hot-range
// capacity, not this value.
//
//goland:noinspection GoUnusedExportedFunction
func WithHotCacheSizeHint(entries uint32) Option {
	return func(o *treeOptions) {
		o.hotCacheHint = entries
	}
}

// WithLogger sets the Logger used for diagnostic messages (purge activity).
// Defaults to DiscardLogger.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(o *treeOptions) {
		o.logger = l
	}
}
