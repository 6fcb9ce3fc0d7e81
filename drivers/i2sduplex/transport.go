package i2sduplex

import (
	"sync"
	"sync/atomic"

	"i2sduplex-go/errcode"
	"i2sduplex-go/x/shmring"
)

// State is the transport lifecycle.
type State uint32

const (
	Uninitialized State = iota
	Configured
	Running
	Stopped
	Faulted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Stats are cumulative since Setup and survive Stop.
type Stats struct {
	RxOverflow       uint64 // frames dropped from a full RX queue
	TxUnderrun       uint64 // TX buffers the peripheral replayed before software refilled them
	TxOverrun        uint64 // WriteFrames calls rejected with QueueFull
	RxOverrun        uint64 // RX buffers overwritten before Tick consumed them
	RxBuffers        uint64
	TxBuffers        uint64
	ActualSampleRate uint32
}

// Transport is a full-duplex I2S link over one Peripheral.
type Transport struct {
	hal  Peripheral
	opts Options

	state atomic.Uint32
	rate  atomic.Uint32 // achieved sample rate
	stats counters

	// life serialises Setup, Tick and Stop.
	life    sync.Mutex
	cfg     Config
	plan    ClockPlan
	pins    PinMap
	ring    *ring
	scratch []Frame

	// mu guards the queues shared with ReadFrames / WriteFrames.
	mu  sync.Mutex
	rxq *shmring.Ring[Frame]
	txq *shmring.Ring[Frame]
}

// New returns an Uninitialized transport bound to hal.
func New(hal Peripheral, opts Options) *Transport {
	return &Transport{hal: hal, opts: opts.withDefaults()}
}

func (t *Transport) State() State { return State(t.state.Load()) }

// IsReady reports whether the link is running.
func (t *Transport) IsReady() bool { return t.State() == Running }

// Setup validates cfg, programs the peripheral and starts continuous
// transfer. On error the transport stays Uninitialized and holds nothing.
func (t *Transport) Setup(cfg Config) error {
	t.life.Lock()
	defer t.life.Unlock()
	if st := t.State(); st != Uninitialized {
		return &errcode.E{C: errcode.InvalidState, Op: "setup", Msg: st.String()}
	}

	plan, err := ComputePlan(cfg.SampleRate, cfg.BitsPerSample, cfg.Channel, t.hal.ClockSource())
	if err != nil {
		return err
	}
	lo, hi := t.hal.PinRange()
	pins, err := BindPins(cfg.Pins, lo, hi)
	if err != nil {
		return err
	}
	if err := t.hal.ConfigureClocks(plan); err != nil {
		return driverErr("configure_clocks", err)
	}
	if err := t.hal.BindPins(pins); err != nil {
		return driverErr("bind_pins", err)
	}
	t.state.Store(uint32(Configured))

	r, err := startRing(t.hal, plan, t.opts.BufferCount, t.opts.BufferFrames, &t.stats)
	if err != nil {
		t.state.Store(uint32(Uninitialized))
		println("[i2s] setup failed:", err.Error())
		return err
	}

	t.cfg, t.plan, t.pins, t.ring = cfg, plan, pins, r
	t.scratch = make([]Frame, t.opts.BufferFrames)
	t.mu.Lock()
	t.rxq = shmring.New[Frame](t.opts.RxQueueFrames)
	t.txq = shmring.New[Frame](t.opts.TxQueueFrames)
	t.mu.Unlock()
	t.rate.Store(plan.ActualSampleRate)
	t.state.Store(uint32(Running))

	if plan.Deviates() {
		println("[i2s] warn: sample rate", plan.SampleRate, "Hz achieved as", plan.ActualSampleRate, "Hz (", plan.DeviationPPM, "ppm )")
	}
	println("[i2s] running:", cfg.SampleRate, "Hz", cfg.BitsPerSample, "bit", cfg.Channel.String())
	return nil
}

// driverErr keeps config codes from the HAL and maps the rest to
// PeripheralBusy.
func driverErr(op string, err error) error {
	c := errcode.MapDriverErr(err)
	if c == errcode.Error || c == errcode.Busy {
		c = errcode.PeripheralBusy
	}
	return errcode.Wrap(c, op, err)
}

// Tick moves completed RX buffers into the RX queue and refills free TX
// buffers from the TX queue, padding with silence. It never blocks. It is a
// no-op unless Running and returns ComponentFaulted once the peripheral has
// reported a hard failure.
func (t *Transport) Tick() error {
	t.life.Lock()
	defer t.life.Unlock()
	switch t.State() {
	case Running:
	case Faulted:
		return errcode.ComponentFaulted
	default:
		return nil
	}

	if s, ok := t.hal.(Servicer); ok {
		s.Service()
	}
	if err := t.hal.Err(); err != nil {
		_ = t.ring.stop()
		t.state.Store(uint32(Faulted))
		println("[i2s] peripheral fault:", err.Error())
		return errcode.Wrap(errcode.ComponentFaulted, "tick", err)
	}

	// Bounded: a ring can only have count-1 buffers waiting per direction.
	for pass := 0; pass < t.ring.count; pass++ {
		rx, tx := t.ring.poll()
		if rx == nil && tx == nil {
			break
		}
		if rx != nil {
			t.drainRX(rx)
		}
		if tx != nil {
			t.fillTX(tx)
		}
	}
	return nil
}

func (t *Transport) drainRX(buf []byte) {
	n, err := DecodeInto(t.scratch, buf, t.cfg.BitsPerSample, t.cfg.Channel)
	if err != nil || n == 0 {
		return
	}
	t.mu.Lock()
	dropped := t.rxq.WriteOverwrite(t.scratch[:n])
	t.mu.Unlock()
	if dropped > 0 {
		t.stats.rxOverflow.Add(uint64(dropped))
	}
}

func (t *Transport) fillTX(buf []byte) {
	want := len(buf) / t.ring.stride
	t.mu.Lock()
	n := t.txq.ReadInto(t.scratch[:want])
	t.mu.Unlock()
	off, _ := EncodeInto(buf, t.scratch[:n], t.cfg.BitsPerSample, t.cfg.Channel)
	clear(buf[off:])
}

// ReadFrames removes up to max frames from the RX queue. It never blocks and
// returns an empty slice when nothing is queued. Frames still queued after
// Stop remain readable.
func (t *Transport) ReadFrames(maxCount int) ([]Frame, error) {
	if err := t.readable(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rxq == nil || maxCount <= 0 {
		return []Frame{}, nil
	}
	if n := t.rxq.Len(); n < maxCount {
		maxCount = n
	}
	out := make([]Frame, maxCount)
	t.rxq.ReadInto(out)
	return out, nil
}

// ReadFramesInto is the allocation-free form of ReadFrames.
func (t *Transport) ReadFramesInto(dst []Frame) (int, error) {
	if err := t.readable(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rxq == nil {
		return 0, nil
	}
	return t.rxq.ReadInto(dst), nil
}

func (t *Transport) readable() error {
	switch t.State() {
	case Running, Stopped:
		return nil
	case Faulted:
		return errcode.ComponentFaulted
	default:
		return errcode.NotRunning
	}
}

// WriteFrames queues frames for transmission. Either all frames are queued
// or none are and QueueFull is returned.
func (t *Transport) WriteFrames(frames []Frame) error {
	switch t.State() {
	case Running:
	case Faulted:
		return errcode.ComponentFaulted
	default:
		return errcode.NotRunning
	}
	if len(frames) == 0 {
		return nil
	}
	t.mu.Lock()
	ok := t.txq.TryWriteAll(frames)
	t.mu.Unlock()
	if !ok {
		t.stats.txOverrun.Add(1)
		return errcode.QueueFull
	}
	return nil
}

// RxQueued reports the RX queue depth in frames.
func (t *Transport) RxQueued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return depth(t.rxq)
}

// TxQueued reports the TX queue depth in frames.
func (t *Transport) TxQueued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return depth(t.txq)
}

func depth(q *shmring.Ring[Frame]) int {
	if q == nil {
		return 0
	}
	return q.Len()
}

// Stop halts the peripheral and releases DMA memory. Repeated calls are
// no-ops; a faulted transport stays Faulted. Stats are kept.
func (t *Transport) Stop() error {
	t.life.Lock()
	defer t.life.Unlock()
	switch t.State() {
	case Stopped, Faulted:
		return nil
	}
	err := t.ring.stop()
	t.ring = nil
	t.mu.Lock()
	if t.txq != nil {
		t.txq.Reset()
	}
	t.mu.Unlock()
	t.state.Store(uint32(Stopped))
	println("[i2s] stopped")
	if err != nil {
		return driverErr("halt", err)
	}
	return nil
}

// Stats returns a snapshot of the dropout and throughput counters.
func (t *Transport) Stats() Stats {
	return Stats{
		RxOverflow:       t.stats.rxOverflow.Load(),
		TxUnderrun:       t.stats.txUnderrun.Load(),
		TxOverrun:        t.stats.txOverrun.Load(),
		RxOverrun:        t.stats.rxOverrun.Load(),
		RxBuffers:        t.stats.rxBuffers.Load(),
		TxBuffers:        t.stats.txBuffers.Load(),
		ActualSampleRate: t.rate.Load(),
	}
}

// Config returns the configuration accepted by Setup.
func (t *Transport) Config() Config {
	t.life.Lock()
	defer t.life.Unlock()
	return t.cfg
}

// Plan returns the clock plan computed by Setup.
func (t *Transport) Plan() ClockPlan {
	t.life.Lock()
	defer t.life.Unlock()
	return t.plan
}

// SampleRate is the configured (not achieved) sample rate.
func (t *Transport) SampleRate() uint32 { return t.Config().SampleRate }

// IsConfigError reports whether err came from configuration validation.
func IsConfigError(err error) bool {
	switch errcode.Of(err) {
	case errcode.InvalidSampleRate, errcode.InvalidBitDepth, errcode.InvalidChannelMode,
		errcode.PinConflict, errcode.PinOutOfRange, errcode.ClockUnachievable:
		return true
	}
	return false
}

// IsDriverError reports whether err came from peripheral bring-up.
func IsDriverError(err error) bool {
	switch errcode.Of(err) {
	case errcode.AllocationFailed, errcode.PeripheralBusy:
		return true
	}
	return false
}
