package i2sduplex

import (
	"testing"

	"i2sduplex-go/errcode"
)

func TestBindPins(t *testing.T) {
	base := Pins{LRCLK: 25, BCLK: 26, MCLK: NoPin, DIN: 35, DOUT: 22}
	cases := []struct {
		name string
		mod  func(p *Pins)
		want errcode.Code
	}{
		{"ok-no-mclk", func(p *Pins) {}, errcode.OK},
		{"ok-mclk", func(p *Pins) { p.MCLK = 0 }, errcode.OK},
		{"din-eq-dout", func(p *Pins) { p.DOUT = p.DIN }, errcode.PinConflict},
		{"bclk-eq-lrclk", func(p *Pins) { p.BCLK = p.LRCLK }, errcode.PinConflict},
		{"mclk-eq-bclk", func(p *Pins) { p.MCLK = p.BCLK }, errcode.PinConflict},
		{"above-range", func(p *Pins) { p.DIN = 40 }, errcode.PinOutOfRange},
		{"negative", func(p *Pins) { p.LRCLK = -2 }, errcode.PinOutOfRange},
		{"missing-dout", func(p *Pins) { p.DOUT = NoPin }, errcode.PinOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mod(&p)
			m, err := BindPins(p, 0, 39)
			if got := errcode.Of(err); got != tc.want {
				t.Fatalf("got %v want %q", err, tc.want)
			}
			if err == nil && (m.Pin(RoleBCLK) != p.BCLK || m.Pin(RoleDOUT) != p.DOUT) {
				t.Fatalf("map=%v", m)
			}
		})
	}
}

func TestBindPinsUsesPlatformRange(t *testing.T) {
	p := Pins{LRCLK: 45, BCLK: 17, MCLK: 2, DIN: 16, DOUT: 15}
	if _, err := BindPins(p, 0, 39); errcode.Of(err) != errcode.PinOutOfRange {
		t.Fatalf("0..39: %v", err)
	}
	m, err := BindPins(p, 0, 48)
	if err != nil {
		t.Fatalf("0..48: %v", err)
	}
	if !m.Used(RoleMCLK) || m.Pin(RoleLRCLK) != 45 {
		t.Fatalf("map=%v", m)
	}
}
