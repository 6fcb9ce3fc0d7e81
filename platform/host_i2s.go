//go:build !rp2040 && !rp2350

package platform

import (
	"errors"
	"sync"
	"time"

	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/platform/boards"
	"i2sduplex-go/x/timex"
)

type busyError struct{ what string }

func (e busyError) Error() string   { return e.what }
func (e busyError) Temporary() bool { return true }

var (
	// ErrBusy is returned when the peripheral is reprogrammed while running.
	ErrBusy error = busyError{"i2s: peripheral running"}
	// ErrBuffers rejects mismatched RX/TX ring shapes.
	ErrBuffers = errors.New("i2s: rx/tx buffer sets differ")
)

// HostI2S simulates a DMA-driven I2S peripheral for host builds and tests.
// Each Advance completes one buffer period in both directions: the RX
// buffer is filled (loopback of the TX buffer in flight, a source function,
// or silence), the TX buffer is captured and cleared, and the completion
// callback fires once per direction.
//
// Advance must run on the goroutine that drives Tick, since the buffers are
// shared with it. In paced mode Service (called by Tick) advances by wall
// clock.
type HostI2S struct {
	Board boards.Board

	mu       sync.Mutex
	plan     i2sduplex.ClockPlan
	pins     i2sduplex.PinMap
	cb       i2sduplex.CompletionFunc
	rx, tx   [][]byte
	rxIdx    int
	txIdx    int
	running  bool
	loopback bool
	source   func(buf []byte)
	captured []byte
	capLimit int
	err      error
	failNext error
	halts    int

	now    func() time.Time
	last   time.Time
	period time.Duration
}

// NewHostI2S returns a stopped simulator for board b.
func NewHostI2S(b boards.Board) *HostI2S {
	return &HostI2S{Board: b, capLimit: 1 << 20}
}

func (h *HostI2S) PinRange() (int, int) { return h.Board.GPIOMin, h.Board.GPIOMax }

func (h *HostI2S) ClockSource() i2sduplex.ClockSource {
	return i2sduplex.ClockSource{BaseHz: h.Board.I2SBaseHz, FracBits: h.Board.I2SFracBits}
}

func (h *HostI2S) MaxDMABytes() int { return h.Board.MaxDMABytes }

func (h *HostI2S) ConfigureClocks(p i2sduplex.ClockPlan) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrBusy
	}
	h.plan = p
	return nil
}

func (h *HostI2S) BindPins(m i2sduplex.PinMap) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrBusy
	}
	h.pins = m
	return nil
}

func (h *HostI2S) RegisterCompletionCallback(fn i2sduplex.CompletionFunc) {
	h.mu.Lock()
	h.cb = fn
	h.mu.Unlock()
}

func (h *HostI2S) StartContinuousDuplex(rx, tx [][]byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrBusy
	}
	if err := h.failNext; err != nil {
		h.failNext = nil
		return err
	}
	if len(rx) == 0 || len(rx) != len(tx) || len(rx[0]) != len(tx[0]) {
		return ErrBuffers
	}
	h.rx, h.tx = rx, tx
	h.rxIdx, h.txIdx = 0, 0
	h.running = true
	h.err = nil
	if fb := h.plan.FrameBytes(); fb > 0 {
		h.period = timex.FramesDuration(len(rx[0])/fb, h.plan.ActualSampleRate)
	}
	h.last = time.Time{}
	return nil
}

func (h *HostI2S) Halt() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.halts++
	}
	h.running = false
	h.rx, h.tx = nil, nil
	return nil
}

func (h *HostI2S) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Running reports whether DMA is active.
func (h *HostI2S) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Halts counts Halt calls that stopped a running transfer.
func (h *HostI2S) Halts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.halts
}

// Plan and Pins return what the driver programmed.
func (h *HostI2S) Plan() i2sduplex.ClockPlan {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plan
}

func (h *HostI2S) Pins() i2sduplex.PinMap {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pins
}

// SetLoopback routes DOUT to DIN.
func (h *HostI2S) SetLoopback(on bool) {
	h.mu.Lock()
	h.loopback = on
	h.mu.Unlock()
}

// SetRXSource fills each RX buffer when loopback is off. nil means silence.
func (h *HostI2S) SetRXSource(fn func(buf []byte)) {
	h.mu.Lock()
	h.source = fn
	h.mu.Unlock()
}

// Fail latches a hard fault reported through Err.
func (h *HostI2S) Fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// FailNextStart makes the next StartContinuousDuplex return err.
func (h *HostI2S) FailNextStart(err error) {
	h.mu.Lock()
	h.failNext = err
	h.mu.Unlock()
}

// SetPaced makes Service advance by elapsed time read from now. A nil now
// turns pacing off.
func (h *HostI2S) SetPaced(now func() time.Time) {
	h.mu.Lock()
	h.now = now
	h.last = time.Time{}
	h.mu.Unlock()
}

// Period is the duration of one DMA buffer at the achieved rate.
func (h *HostI2S) Period() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.period
}

// Service advances by the number of whole buffer periods elapsed since the
// previous call. It is a no-op unless paced.
func (h *HostI2S) Service() {
	h.mu.Lock()
	if h.now == nil || !h.running || h.period <= 0 {
		h.mu.Unlock()
		return
	}
	now := h.now()
	if h.last.IsZero() {
		h.last = now
		h.mu.Unlock()
		return
	}
	n := int(now.Sub(h.last) / h.period)
	h.last = h.last.Add(time.Duration(n) * h.period)
	h.mu.Unlock()
	h.Advance(n)
}

// Advance completes n buffer periods. It returns the number completed, which
// is short if the peripheral halts or faults.
func (h *HostI2S) Advance(n int) int {
	done := 0
	for ; done < n; done++ {
		h.mu.Lock()
		if !h.running || h.err != nil {
			h.mu.Unlock()
			break
		}
		ri, ti := h.rxIdx, h.txIdx
		in, out := h.rx[ri], h.tx[ti]
		switch {
		case h.loopback:
			copy(in, out)
		case h.source != nil:
			h.source(in)
		default:
			clear(in)
		}
		if room := h.capLimit - len(h.captured); room > 0 {
			if room > len(out) {
				room = len(out)
			}
			h.captured = append(h.captured, out[:room]...)
		}
		clear(out) // auto-clear: an unrefilled slot plays silence
		h.rxIdx = (ri + 1) % len(h.rx)
		h.txIdx = (ti + 1) % len(h.tx)
		cb := h.cb
		h.mu.Unlock()

		if cb != nil {
			cb(i2sduplex.RX, ri)
			cb(i2sduplex.TX, ti)
		}
	}
	return done
}

// TakeTX returns and clears everything transmitted so far.
func (h *HostI2S) TakeTX() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.captured
	h.captured = nil
	return out
}
