package i2sduplex

import (
	"errors"
	"testing"

	"i2sduplex-go/errcode"
)

func TestComputePlan(t *testing.T) {
	cases := []struct {
		name     string
		rate     uint32
		bits     uint8
		mode     ChannelMode
		src      ClockSource
		div      uint64
		actual   uint32
		deviates bool
	}{
		{"16k-frac", 16000, 16, ChannelStereo, ClockSource{160_000_000, 8}, 80000, 16000, false},
		{"44k1-integer", 44100, 16, ChannelStereo, ClockSource{160_000_000, 0}, 113, 44248, true},
		{"48k-mono-32", 48000, 32, ChannelLeft, ClockSource{160_000_000, 0}, 104, 48077, true},
		{"8k-mono", 8000, 16, ChannelRight, ClockSource{160_000_000, 0}, 1250, 8000, false},
		// 7991.6 Hz rounds to 7992 (1000 ppm) but is 1050 ppm off.
		{"8k-coarse", 8000, 16, ChannelLeft, ClockSource{12_786_560, 0}, 100, 7992, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ComputePlan(tc.rate, tc.bits, tc.mode, tc.src)
			if err != nil {
				t.Fatalf("ComputePlan: %v", err)
			}
			if p.Divider != tc.div {
				t.Fatalf("divider=%d want %d", p.Divider, tc.div)
			}
			if p.ActualSampleRate != tc.actual {
				t.Fatalf("actual=%d want %d", p.ActualSampleRate, tc.actual)
			}
			if p.Deviates() != tc.deviates {
				t.Fatalf("deviates=%v (ppm %d)", p.Deviates(), p.DeviationPPM)
			}
			if want := tc.rate * uint32(tc.bits) * uint32(tc.mode.Channels()); p.TargetBCLK != want {
				t.Fatalf("bclk=%d want %d", p.TargetBCLK, want)
			}
		})
	}
}

func TestComputePlanSplitsDivider(t *testing.T) {
	p, err := ComputePlan(16000, 16, ChannelStereo, ClockSource{BaseHz: 160_000_000, FracBits: 8})
	if err != nil {
		t.Fatal(err)
	}
	// 160 MHz / 512 kHz = 312.5
	if p.DivInt != 312 || p.DivFrac != 128 {
		t.Fatalf("div=%d+%d/256", p.DivInt, p.DivFrac)
	}
	if p.FrameBytes() != 4 {
		t.Fatalf("frame bytes=%d", p.FrameBytes())
	}
}

func TestComputePlanErrors(t *testing.T) {
	src := ClockSource{BaseHz: 160_000_000}
	cases := []struct {
		rate uint32
		bits uint8
		mode ChannelMode
		src  ClockSource
		want errcode.Code
	}{
		{7999, 16, ChannelStereo, src, errcode.InvalidSampleRate},
		{96001, 16, ChannelStereo, src, errcode.InvalidSampleRate},
		{16000, 8, ChannelStereo, src, errcode.InvalidBitDepth},
		{16000, 20, ChannelStereo, src, errcode.InvalidBitDepth},
		{16000, 16, ChannelMode(9), src, errcode.InvalidChannelMode},
		{96000, 32, ChannelStereo, ClockSource{BaseHz: 1_000_000}, errcode.ClockUnachievable},
		{8000, 16, ChannelLeft, ClockSource{BaseHz: 160_000_000, FracBits: 16}, errcode.OK},
		{8000, 16, ChannelLeft, ClockSource{BaseHz: 4_000_000_000}, errcode.OK},
	}
	for _, tc := range cases {
		_, err := ComputePlan(tc.rate, tc.bits, tc.mode, tc.src)
		if got := errcode.Of(err); got != tc.want {
			t.Errorf("rate=%d bits=%d mode=%d: got %q want %q", tc.rate, tc.bits, tc.mode, got, tc.want)
		}
		if tc.want != errcode.OK && !errors.Is(err, tc.want) {
			t.Errorf("errors.Is(%v, %q) = false", err, tc.want)
		}
	}
}

func TestComputePlanCapsFracBits(t *testing.T) {
	p, err := ComputePlan(8000, 16, ChannelLeft, ClockSource{BaseHz: 160_000_000, FracBits: 0xFF})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if p.FracBits != 16 || p.DivInt != 1250 || p.DivFrac != 0 {
		t.Fatalf("plan=%+v", p)
	}
}

func TestComputePlanDeviationFromExactRatio(t *testing.T) {
	p, err := ComputePlan(8000, 16, ChannelLeft, ClockSource{BaseHz: 12_786_560})
	if err != nil {
		t.Fatal(err)
	}
	if p.DeviationPPM != 1050 || !p.Deviates() {
		t.Fatalf("ppm=%d deviates=%v", p.DeviationPPM, p.Deviates())
	}
	p, err = ComputePlan(44100, 16, ChannelStereo, ClockSource{BaseHz: 160_000_000})
	if err != nil {
		t.Fatal(err)
	}
	// 160e6/3616 = 44247.79 Hz
	if p.DeviationPPM != 3351 {
		t.Fatalf("44k1 ppm=%d", p.DeviationPPM)
	}
}
