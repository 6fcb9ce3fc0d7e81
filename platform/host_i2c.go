//go:build !rp2040 && !rp2350

package platform

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// ErrNack is returned for transactions to an address with no device.
var ErrNack = errors.New("i2c: nack")

// RegWrite is one register write seen on the bus.
type RegWrite struct {
	Addr uint16
	Reg  byte
	Val  byte
}

// HostI2C implements tinygo drivers.I2C as a set of 8-bit register files.
// A write of [reg, v0, v1...] stores from reg upward; a read after a
// one-byte write returns registers from reg upward.
type HostI2C struct {
	mu     sync.Mutex
	devs   map[uint16]*[256]byte
	writes []RegWrite
}

var _ drivers.I2C = (*HostI2C)(nil)

func NewHostI2C() *HostI2C { return &HostI2C{devs: map[uint16]*[256]byte{}} }

// AddDevice attaches a register file at addr with initial values.
func (h *HostI2C) AddDevice(addr uint16, init map[byte]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	regs := new([256]byte)
	for r, v := range init {
		regs[r] = v
	}
	h.devs[addr] = regs
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	regs, ok := h.devs[addr]
	if !ok {
		return ErrNack
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	for i, v := range w[1:] {
		rr := reg + byte(i)
		regs[rr] = v
		h.writes = append(h.writes, RegWrite{Addr: addr, Reg: rr, Val: v})
	}
	for i := range r {
		r[i] = regs[reg+byte(i)]
	}
	return nil
}

// Reg returns the current value of a register (0 if no device).
func (h *HostI2C) Reg(addr uint16, reg byte) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if regs, ok := h.devs[addr]; ok {
		return regs[reg]
	}
	return 0
}

// Writes returns the register writes so far, in order.
func (h *HostI2C) Writes() []RegWrite {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RegWrite(nil), h.writes...)
}
