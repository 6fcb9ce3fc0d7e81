package i2sduplex

import (
	"sync/atomic"

	"i2sduplex-go/errcode"
	"i2sduplex-go/x/strconvx"
)

// counters are shared between the tick path, the completion callback and
// Stats readers.
type counters struct {
	rxOverflow atomic.Uint64
	txUnderrun atomic.Uint64
	txOverrun  atomic.Uint64
	rxOverrun  atomic.Uint64
	rxBuffers  atomic.Uint64
	txBuffers  atomic.Uint64
}

// ring owns both DMA buffer sets for one running session. The peripheral
// walks each set in index order; software trails it by completion count.
type ring struct {
	hal    Peripheral
	count  int
	stride int
	rx, tx [][]byte

	// Written only by the completion callback.
	rxDone atomic.Uint32
	txDone atomic.Uint32

	// Tick path only.
	rxSeq, txSeq uint32
	running      bool

	stats *counters
}

func startRing(hal Peripheral, plan ClockPlan, count, frames int, stats *counters) (*ring, error) {
	const op = "dma_start"
	stride := plan.FrameBytes()
	if count < 2 || frames <= 0 || stride == 0 {
		return nil, &errcode.E{C: errcode.AllocationFailed, Op: op,
			Msg: strconvx.Itoa(count) + "x" + strconvx.Itoa(frames) + " frames"}
	}
	size := frames * stride
	if limit := hal.MaxDMABytes(); limit > 0 && 2*count*size > limit {
		return nil, &errcode.E{C: errcode.AllocationFailed, Op: op,
			Msg: strconvx.Itoa(2*count*size) + " bytes exceeds " + strconvx.Itoa(limit)}
	}

	r := &ring{hal: hal, count: count, stride: stride, stats: stats}
	// One backing block per direction; TX starts as silence.
	r.rx = carve(make([]byte, count*size), count, size)
	r.tx = carve(make([]byte, count*size), count, size)

	hal.RegisterCompletionCallback(r.complete)
	if err := hal.StartContinuousDuplex(r.rx, r.tx); err != nil {
		hal.RegisterCompletionCallback(nil)
		r.rx, r.tx = nil, nil
		return nil, errcode.Wrap(errcode.PeripheralBusy, op, err)
	}
	r.running = true
	return r, nil
}

func carve(block []byte, count, size int) [][]byte {
	out := make([][]byte, count)
	for i := range out {
		out[i] = block[i*size : (i+1)*size : (i+1)*size]
	}
	return out
}

// complete runs in interrupt context: counter bump only.
func (r *ring) complete(dir Direction, _ int) {
	if dir == RX {
		r.rxDone.Add(1)
	} else {
		r.txDone.Add(1)
	}
}

// poll returns the oldest completed RX buffer and the oldest free TX slot, or
// nil for either when none is ready. A returned buffer belongs to software
// until the next poll. If the peripheral has lapped software, the lost
// buffers are counted and skipped.
func (r *ring) poll() (rx, tx []byte) {
	if !r.running {
		return nil, nil
	}
	if i, ok := r.advance(r.rxDone.Load(), &r.rxSeq, &r.stats.rxOverrun); ok {
		rx = r.rx[i]
		r.stats.rxBuffers.Add(1)
	}
	if i, ok := r.advance(r.txDone.Load(), &r.txSeq, &r.stats.txUnderrun); ok {
		tx = r.tx[i]
		r.stats.txBuffers.Add(1)
	}
	return rx, tx
}

func (r *ring) advance(done uint32, seq *uint32, lost *atomic.Uint64) (int, bool) {
	pending := done - *seq
	if pending == 0 {
		return 0, false
	}
	// The buffer at index done%count is in flight; at most count-1 can be
	// waiting for software.
	if limit := uint32(r.count - 1); pending > limit {
		skip := pending - limit
		lost.Add(uint64(skip))
		*seq += skip
	}
	i := int(*seq % uint32(r.count))
	*seq++
	return i, true
}

// stop halts the peripheral and releases the buffers. Safe to repeat.
func (r *ring) stop() error {
	if r == nil || !r.running {
		return nil
	}
	r.running = false
	err := r.hal.Halt()
	r.hal.RegisterCompletionCallback(nil)
	r.rx, r.tx = nil, nil
	return err
}
