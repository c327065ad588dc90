// Package arith implements the scaled fixed-point arithmetic used
// throughout gotex (spec.md §4.5). All lengths are 32-bit signed scaled
// points (2^-16 pt); every multiply/divide runs through 64-bit
// intermediates and reports overflow rather than wrapping silently.
package arith

import (
	"github.com/ha1tch/gotex/texerr"
)

const (
	unity    = 1 << 16
	maxValue = 1<<31 - 1
)

// overflows reports whether v exceeds the representable 2^31-1 magnitude.
func overflows(v int64) bool {
	return v > maxValue || v < -maxValue
}

// NxPlusY computes n*x + y on scaled values, failing with an arithmetic
// overflow error when the exact result exceeds 2^31-1 in magnitude.
func NxPlusY(n, x, y int32) (int32, error) {
	r := int64(n)*int64(x) + int64(y)
	if overflows(r) {
		return 0, texerr.New(texerr.Overflow, "arithmetic overflow: %d*%d+%d", n, x, y)
	}
	return int32(r), nil
}

// XOverN computes x/n truncated toward zero, along with the remainder,
// which carries the sign of x (both flip when n is negative), matching
// TeX's x_over_n semantics.
func XOverN(x, n int32) (quotient, remainder int32, err error) {
	if n == 0 {
		return 0, 0, texerr.New(texerr.Overflow, "arithmetic overflow: division by zero")
	}
	negative := false
	if n < 0 {
		x, n = -x, -n
		negative = true
	}
	if x >= 0 {
		quotient = x / n
		remainder = x % n
	} else {
		quotient = -((-x) / n)
		remainder = -((-x) % n)
	}
	if negative {
		remainder = -remainder
	}
	return quotient, remainder, nil
}

// XnOverD computes floor(x*n/d + 0.5) with ties away from zero, using a
// 64-bit intermediate so overflow is only possible when the final
// result itself does not fit (spec.md §4.5).
func XnOverD(x, n, d int32) (int32, error) {
	if d == 0 {
		return 0, texerr.New(texerr.Overflow, "arithmetic overflow: division by zero")
	}
	neg := false
	xx, nn, dd := int64(x), int64(n), int64(d)
	if xx < 0 {
		xx, neg = -xx, !neg
	}
	if nn < 0 {
		nn, neg = -nn, !neg
	}
	if dd < 0 {
		dd, neg = -dd, !neg
	}
	prod := xx * nn
	result := prod / dd
	remTwice := (prod % dd) * 2
	if remTwice >= dd {
		result++
	}
	if neg {
		result = -result
	}
	if overflows(result) {
		return 0, texerr.New(texerr.Overflow, "arithmetic overflow: %d*%d/%d", x, n, d)
	}
	return int32(result), nil
}

// Badness returns 10000 when t > s (cannot be achieved at all), else
// 100*(t/s)^3 clamped to [0, 10000] — the measure of how badly a line or
// page's glue must be stretched or shrunk (spec.md §4.5, §8).
func Badness(t, s int32) int32 {
	if t == 0 {
		return 0
	}
	if s <= 0 || t > s {
		return infBad
	}
	ratio := float64(t) / float64(s)
	b := 100 * ratio * ratio * ratio
	if b > infBad {
		return infBad
	}
	return int32(b + 0.5)
}

const infBad = 10000
