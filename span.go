package hybtree

import "cmp"

// leftSpan and rightSpan build the synthetic bounds spec.md §4.5.7 uses for
// leftmost/rightmost descents, where the true endpoint is +/-infinity in
// the logical key space: subtract or add an amount proportional to LeafMax
// from the one known endpoint.
//
// Only fixed-width numeric key types have an obvious notion of "subtract
// LeafMax". For anything else (string keys, say) the synthetic bound
// collapses to the real endpoint — a zero-width synthetic range that no key
// lies in, so the Working-Set's Touch rejects it just like any other cold touch,
// per spec.md §9's documented "missed caching opportunities on tree edges".
func leftSpan[K cmp.Ordered](bound K, n int) K {
	switch v := any(bound).(type) {
	case int:
		return any(subInt(v, n)).(K)
	case int8:
		return any(int8(subInt(int(v), n))).(K)
	case int16:
		return any(int16(subInt(int(v), n))).(K)
	case int32:
		return any(int32(subInt(int(v), n))).(K)
	case int64:
		return any(int64(subInt(int(v), n))).(K)
	case uint:
		return any(subUint(v, uint(n))).(K)
	case uint8:
		return any(uint8(subUint(uint(v), uint(n)))).(K)
	case uint16:
		return any(uint16(subUint(uint(v), uint(n)))).(K)
	case uint32:
		return any(uint32(subUint(uint(v), uint(n)))).(K)
	case uint64:
		return any(subUint(uint(v), uint(n))).(K)
	case float32:
		return any(v - float32(n)).(K)
	case float64:
		return any(v - float64(n)).(K)
	default:
		return bound
	}
}

func rightSpan[K cmp.Ordered](bound K, n int) K {
	switch v := any(bound).(type) {
	case int:
		return any(v + n).(K)
	case int8:
		return any(v + int8(n)).(K)
	case int16:
		return any(v + int16(n)).(K)
	case int32:
		return any(v + int32(n)).(K)
	case int64:
		return any(v + int64(n)).(K)
	case uint:
		return any(v + uint(n)).(K)
	case uint8:
		return any(v + uint8(n)).(K)
	case uint16:
		return any(v + uint16(n)).(K)
	case uint32:
		return any(v + uint32(n)).(K)
	case uint64:
		return any(v + uint64(n)).(K)
	case float32:
		return any(v + float32(n)).(K)
	case float64:
		return any(v + float64(n)).(K)
	default:
		return bound
	}
}

func subInt(v, n int) int { return v - n }

func subUint(v, n uint) uint {
	if n > v {
		return 0
	}
	return v - n
}
