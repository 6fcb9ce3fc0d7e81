package i2sduplex

import (
	"i2sduplex-go/errcode"
	"i2sduplex-go/x/mathx"
	"i2sduplex-go/x/strconvx"
)

// MaxDeviationPPM is the sample rate error above which Setup logs a warning.
const MaxDeviationPPM = 1000

const maxFracBits = 16

// ClockPlan holds the divider settings derived from a Config. The divider is
// fixed point with FracBits fractional bits: Divider = DivInt<<FracBits | DivFrac.
type ClockPlan struct {
	BaseHz   uint32
	FracBits uint8
	Divider  uint64
	DivInt   uint32
	DivFrac  uint32

	BitsPerSample uint8
	Channels      uint8

	TargetBCLK       uint32
	ActualBCLK       uint32
	SampleRate       uint32
	ActualSampleRate uint32
	DeviationPPM     uint32
}

// Deviates reports whether the achieved rate is more than 0.1% off target.
func (p ClockPlan) Deviates() bool { return p.DeviationPPM > MaxDeviationPPM }

// FrameBytes is the number of bytes one PCM frame occupies in DMA memory.
func (p ClockPlan) FrameBytes() int { return int(p.BitsPerSample/8) * int(p.Channels) }

func validBits(bits uint8) bool {
	return bits == 16 || bits == 24 || bits == 32
}

// ComputePlan derives clock dividers for the requested format from the
// peripheral's base clock.
func ComputePlan(sampleRate uint32, bitsPerSample uint8, mode ChannelMode, src ClockSource) (ClockPlan, error) {
	const op = "compute_plan"
	if !mathx.Between(sampleRate, MinSampleRate, MaxSampleRate) {
		return ClockPlan{}, &errcode.E{C: errcode.InvalidSampleRate, Op: op,
			Msg: strconvx.FormatUint(uint64(sampleRate), 10) + " Hz"}
	}
	if !validBits(bitsPerSample) {
		return ClockPlan{}, &errcode.E{C: errcode.InvalidBitDepth, Op: op,
			Msg: strconvx.Itoa(int(bitsPerSample)) + " bits"}
	}
	ch := mode.Channels()
	if ch == 0 {
		return ClockPlan{}, errcode.Wrap(errcode.InvalidChannelMode, op, nil)
	}
	frac := src.FracBits
	if frac > maxFracBits {
		frac = maxFracBits
	}

	bclk := uint64(sampleRate) * uint64(bitsPerSample) * uint64(ch)
	num := uint64(src.BaseHz) << frac
	div := mathx.RoundDiv(num, bclk)
	whole := div >> frac
	if div < 1<<frac || whole > 0xFFFF {
		return ClockPlan{}, &errcode.E{C: errcode.ClockUnachievable, Op: op,
			Msg: "bclk " + strconvx.FormatUint(bclk, 10) + " Hz from " +
				strconvx.FormatUint(uint64(src.BaseHz), 10) + " Hz"}
	}

	p := ClockPlan{
		BaseHz:        src.BaseHz,
		FracBits:      frac,
		Divider:       div,
		DivInt:        uint32(whole),
		DivFrac:       uint32(div & (1<<frac - 1)),
		BitsPerSample: bitsPerSample,
		Channels:      uint8(ch),
		TargetBCLK:    uint32(bclk),
		SampleRate:    sampleRate,
	}
	perFrame := div * uint64(bitsPerSample) * uint64(ch)
	p.ActualBCLK = uint32(mathx.RoundDiv(num, div))
	p.ActualSampleRate = uint32(mathx.RoundDiv(num, perFrame))
	// Deviation from the exact ratio; the rounded ActualSampleRate can hide
	// tens of ppm at low rates.
	exact := uint64(sampleRate) * perFrame
	p.DeviationPPM = uint32(mathx.MulDiv(mathx.AbsDiff(num, exact), 1_000_000, exact))
	return p, nil
}
