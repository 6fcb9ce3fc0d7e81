package i2sduplex

// fakePeripheral records what the transport programs and lets tests complete
// DMA buffers by hand.
type fakePeripheral struct {
	lo, hi int
	src    ClockSource
	maxDMA int

	plan  ClockPlan
	pins  PinMap
	rx    [][]byte
	tx    [][]byte
	cb    CompletionFunc
	halts int

	clockErr error
	startErr error
	err      error

	rxIdx, txIdx int
}

func newFake() *fakePeripheral {
	return &fakePeripheral{lo: 0, hi: 39, src: ClockSource{BaseHz: 160_000_000, FracBits: 8}}
}

func (f *fakePeripheral) PinRange() (int, int)     { return f.lo, f.hi }
func (f *fakePeripheral) ClockSource() ClockSource { return f.src }
func (f *fakePeripheral) MaxDMABytes() int         { return f.maxDMA }

func (f *fakePeripheral) ConfigureClocks(p ClockPlan) error {
	if f.clockErr != nil {
		return f.clockErr
	}
	f.plan = p
	return nil
}

func (f *fakePeripheral) BindPins(m PinMap) error { f.pins = m; return nil }

func (f *fakePeripheral) RegisterCompletionCallback(fn CompletionFunc) { f.cb = fn }

func (f *fakePeripheral) StartContinuousDuplex(rx, tx [][]byte) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.rx, f.tx = rx, tx
	f.rxIdx, f.txIdx = 0, 0
	return nil
}

func (f *fakePeripheral) Halt() error { f.halts++; return nil }
func (f *fakePeripheral) Err() error  { return f.err }

// completeRX fills the in-flight RX buffer and signals completion.
func (f *fakePeripheral) completeRX(fill []byte) {
	i := f.rxIdx
	copy(f.rx[i], fill)
	f.rxIdx = (i + 1) % len(f.rx)
	f.cb(RX, i)
}

// completeTX returns a copy of the in-flight TX buffer and signals completion.
func (f *fakePeripheral) completeTX() []byte {
	i := f.txIdx
	out := append([]byte(nil), f.tx[i]...)
	f.txIdx = (i + 1) % len(f.tx)
	f.cb(TX, i)
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pins = Pins{LRCLK: 25, BCLK: 26, MCLK: NoPin, DIN: 35, DOUT: 22}
	return cfg
}
