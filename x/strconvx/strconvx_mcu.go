//go:build rp2040 || rp2350

package strconvx

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func FormatInt(i int64, base int) string {
	if i < 0 {
		return string(AppendUint([]byte{'-'}, uint64(-i), base))
	}
	return FormatUint(uint64(i), base)
}

func FormatUint(u uint64, base int) string {
	var buf [64]byte
	return string(AppendUint(buf[:0], u, base))
}

// AppendUint appends u in base (2..36, otherwise 10) without allocating
// beyond dst's growth.
func AppendUint(dst []byte, u uint64, base int) []byte {
	if base < 2 || base > 36 {
		base = 10
	}
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for {
		i--
		buf[i] = digits[u%b]
		u /= b
		if u == 0 {
			break
		}
	}
	return append(dst, buf[i:]...)
}
