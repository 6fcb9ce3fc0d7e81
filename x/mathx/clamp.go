package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs for signed integers. Abs(MinInt) overflows as usual.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// SignedRange returns the two's complement range of a bits-wide integer
// (1..64 bits).
func SignedRange(bits uint) (lo, hi int64) {
	if bits == 0 || bits > 64 {
		return 0, 0
	}
	hi = int64(^uint64(0) >> (65 - bits))
	return -hi - 1, hi
}

// Saturate clamps v to the signed range of a bits-wide integer.
func Saturate(v int64, bits uint) int64 {
	lo, hi := SignedRange(bits)
	return Clamp(v, lo, hi)
}
