package i2sduplex

// Direction identifies one half of the duplex link.
type Direction uint8

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	if d == RX {
		return "rx"
	}
	return "tx"
}

// ClockSource describes the peripheral's divider input.
type ClockSource struct {
	BaseHz uint32
	// FracBits is the number of fractional divider bits (0 = integer only).
	FracBits uint8
}

// CompletionFunc is invoked by the peripheral each time it finishes a buffer
// in the given direction. It runs in interrupt context: it must not block,
// allocate or take locks.
type CompletionFunc func(dir Direction, index int)

// Peripheral is the hardware abstraction the transport drives. Buffers are
// consumed strictly in ring order starting at index 0 in both directions.
type Peripheral interface {
	// PinRange reports the valid GPIO numbers [lo, hi] for this platform.
	PinRange() (lo, hi int)
	ClockSource() ClockSource
	// MaxDMABytes bounds the total DMA memory across both directions
	// (0 = unlimited).
	MaxDMABytes() int

	ConfigureClocks(plan ClockPlan) error
	BindPins(pins PinMap) error
	RegisterCompletionCallback(fn CompletionFunc)
	StartContinuousDuplex(rx, tx [][]byte) error
	Halt() error

	// Err reports a non-recoverable peripheral failure, nil while healthy.
	Err() error
}

// Servicer is implemented by peripherals that need a CPU step on each tick
// (FIFO pumping, emulation). Tick calls Service before polling.
type Servicer interface {
	Service()
}
