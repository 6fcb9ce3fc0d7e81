//go:build !rp2040 && !rp2350

// Package strconvx is the subset of strconv used for topic and log
// rendering. Host builds delegate to strconv.
package strconvx

import "strconv"

func Itoa(i int) string                    { return strconv.Itoa(i) }
func FormatInt(i int64, base int) string   { return strconv.FormatInt(i, base) }
func FormatUint(u uint64, base int) string { return strconv.FormatUint(u, base) }
func AppendUint(dst []byte, u uint64, base int) []byte {
	return strconv.AppendUint(dst, u, base)
}
