// Package shmring provides a bounded FIFO ring of values with two-span
// copies in and out. It does no locking: a Ring is owned by one goroutine or
// guarded by the caller.
package shmring

// Ring is a fixed-capacity FIFO.
type Ring[T any] struct {
	buf []T
	rd  uint64 // consumer index (monotonic)
	wr  uint64 // producer index (monotonic)
}

// New returns an empty ring holding up to size values.
func New[T any](size int) *Ring[T] {
	if size < 1 {
		panic("shmring: size must be >= 1")
	}
	return &Ring[T]{buf: make([]T, size)}
}

func (r *Ring[T]) size() uint64 { return uint64(len(r.buf)) }

// Cap is the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len is the number of queued values.
func (r *Ring[T]) Len() int { return int(r.wr - r.rd) }

// Space is the number of values that can be written without dropping.
func (r *Ring[T]) Space() int { return len(r.buf) - r.Len() }

// WriteFrom copies as much of src as fits and returns the count.
func (r *Ring[T]) WriteFrom(src []T) (n int) {
	n = len(src)
	if s := r.Space(); n > s {
		n = s
	}
	if n == 0 {
		return 0
	}
	r.put(src[:n])
	return n
}

// TryWriteAll copies all of src or nothing.
func (r *Ring[T]) TryWriteAll(src []T) bool {
	if len(src) > r.Space() {
		return false
	}
	r.put(src)
	return true
}

// WriteOverwrite copies src, discarding the oldest queued values to make
// room. If src is larger than the ring only its tail is kept. It returns the
// number of values lost (old ones plus any src head that never fit).
func (r *Ring[T]) WriteOverwrite(src []T) (dropped int) {
	if over := len(src) - len(r.buf); over > 0 {
		dropped = over + r.Len()
		src = src[over:]
		r.rd = r.wr
	}
	if need := len(src) - r.Space(); need > 0 {
		r.rd += uint64(need)
		dropped += need
	}
	r.put(src)
	return dropped
}

func (r *Ring[T]) put(src []T) {
	n := len(src)
	size := r.size()
	wrIdx := r.wr % size
	first := int(size - wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:wrIdx+uint64(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:])
	}
	r.wr += uint64(n)
}

// ReadInto moves up to len(dst) values into dst and returns the count.
func (r *Ring[T]) ReadInto(dst []T) (n int) {
	n = r.Len()
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	size := r.size()
	rdIdx := r.rd % size
	first := int(size - rdIdx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint64(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd += uint64(n)
	return n
}

// Reset discards all queued values.
func (r *Ring[T]) Reset() { r.rd = r.wr }

// Watermarks returns the monotonic read and write indices.
func (r *Ring[T]) Watermarks() (rd, wr uint64) { return r.rd, r.wr }
