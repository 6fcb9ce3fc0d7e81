package i2sduplex

import (
	"i2sduplex-go/errcode"
	"i2sduplex-go/x/strconvx"
)

// Role is an I2S signal.
type Role uint8

const (
	RoleBCLK Role = iota
	RoleLRCLK
	RoleMCLK
	RoleDIN
	RoleDOUT
	numRoles
)

var roleNames = [numRoles]string{"bclk", "lrclk", "mclk", "din", "dout"}

func (r Role) String() string {
	if r < numRoles {
		return roleNames[r]
	}
	return "unknown"
}

// PinMap is the validated pin assignment indexed by Role. Unused roles hold
// NoPin.
type PinMap [numRoles]int

// Pin returns the GPIO bound to r.
func (m PinMap) Pin(r Role) int { return m[r] }

// Used reports whether r is bound.
func (m PinMap) Used(r Role) bool { return m[r] != NoPin }

func (p Pins) roles() PinMap {
	return PinMap{
		RoleBCLK:  p.BCLK,
		RoleLRCLK: p.LRCLK,
		RoleMCLK:  p.MCLK,
		RoleDIN:   p.DIN,
		RoleDOUT:  p.DOUT,
	}
}

// BindPins validates pins against the GPIO range [lo, hi] and returns the
// role map. MCLK may be NoPin; every other role is required. All bound pins
// must be distinct.
func BindPins(pins Pins, lo, hi int) (PinMap, error) {
	const op = "bind_pins"
	m := pins.roles()
	for r := Role(0); r < numRoles; r++ {
		p := m[r]
		if r == RoleMCLK && p == NoPin {
			continue
		}
		if p < lo || p > hi {
			return PinMap{}, &errcode.E{C: errcode.PinOutOfRange, Op: op,
				Msg: r.String() + "=" + strconvx.Itoa(p) + " not in " +
					strconvx.Itoa(lo) + ".." + strconvx.Itoa(hi)}
		}
	}
	for a := Role(0); a < numRoles; a++ {
		if !m.Used(a) {
			continue
		}
		for b := a + 1; b < numRoles; b++ {
			if m[b] == m[a] {
				return PinMap{}, &errcode.E{C: errcode.PinConflict, Op: op,
					Msg: a.String() + " and " + b.String() + " share GPIO" + strconvx.Itoa(m[a])}
			}
		}
	}
	return m, nil
}
