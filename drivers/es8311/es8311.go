// Package es8311 drives the Everest ES8311 mono audio codec over I2C. The
// codec runs as an I2S slave; Configure matches its serial format and clock
// tree to the host's I2S settings.
//
//	c := es8311.New(bus, es8311.Address)
//	err := c.Configure(es8311.Config{SampleRate: 16000, BitsPerSample: 16})
package es8311

import (
	"errors"
	"time"

	"i2sduplex-go/errcode"
	"i2sduplex-go/x/mathx"
	"i2sduplex-go/x/ramp"

	"tinygo.org/x/drivers"
)

var (
	ErrUnknownChip = errors.New("es8311: unexpected chip id")
	ErrFormat      = errors.New("es8311: unsupported format")
)

// Config selects the serial format. Zero fields take defaults.
type Config struct {
	SampleRate    uint32 // default 16000
	BitsPerSample uint8  // default 16
	Channels      uint8  // slots per frame on the bus, default 2
	// UseMCLK clocks the codec from MCLK (256*fs). Otherwise the internal
	// clock is multiplied up from BCLK.
	UseMCLK bool
}

// Device is an ES8311 on an I2C bus.
type Device struct {
	bus  drivers.I2C
	addr uint16

	w      [2]byte
	r      [2]byte
	dacVol uint8
	muted  bool
}

// New returns a Device; it does not touch the bus.
func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = Address
	}
	return &Device{bus: bus, addr: addr, dacVol: VolumeUnity}
}

func (d *Device) write(reg, val byte) error {
	d.w[0], d.w[1] = reg, val
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) read(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// ChipID returns the two identification bytes.
func (d *Device) ChipID() (uint16, error) {
	hi, err := d.read(regChipID1)
	if err != nil {
		return 0, err
	}
	lo, err := d.read(regChipID2)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Configure checks the chip, resets it and brings up ADC and DAC at unity
// volume, unmuted.
func (d *Device) Configure(cfg Config) error {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.BitsPerSample == 0 {
		cfg.BitsPerSample = 16
	}
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}

	id, err := d.ChipID()
	if err != nil {
		return errcode.Wrap(errcode.MapDriverErr(err), "es8311_id", err)
	}
	if id != chipID1<<8|chipID2 {
		return errcode.Wrap(errcode.UnknownChip, "es8311_id", ErrUnknownChip)
	}

	// Full reset, then release into slave mode.
	if err := d.writeAll([][2]byte{
		{regReset, resetAll},
		{regReset, resetClear},
		{regReset, powerOn},
	}); err != nil {
		return err
	}
	if err := d.configureFormat(cfg); err != nil {
		return err
	}
	return d.writeAll([][2]byte{
		{regSystem0D, 0x01},
		{regSystem0E, 0x02},
		{regSystem12, 0x00},
		{regSystem13, 0x10},
		{regADCEQ, 0x6A},
		{regGPIO37, 0x08},
		{regSystem14, 0x1A},
		{regADCVol, VolumeUnity},
		{regDACVol, VolumeUnity},
		{regDACMute, 0x00},
	})
}

// Open runs Configure for a stereo bus at the given format.
func (d *Device) Open(sampleRate uint32, bits uint8, useMCLK bool) error {
	return d.Configure(Config{SampleRate: sampleRate, BitsPerSample: bits, Channels: 2, UseMCLK: useMCLK})
}

// ConfigureFormat reprograms clocks and word length without a reset.
func (d *Device) ConfigureFormat(sampleRate uint32, bits uint8, useMCLK bool) error {
	return d.configureFormat(Config{SampleRate: sampleRate, BitsPerSample: bits, Channels: 2, UseMCLK: useMCLK})
}

func (d *Device) configureFormat(cfg Config) error {
	wl, ok := wordLen(cfg.BitsPerSample)
	if !ok {
		return errcode.Wrap(errcode.InvalidBitDepth, "es8311_format", ErrFormat)
	}
	slotBits := uint32(cfg.BitsPerSample) * uint32(cfg.Channels)
	if slotBits == 0 {
		return errcode.Wrap(errcode.Unsupported, "es8311_format", ErrFormat)
	}
	// MCLK/BCLK with MCLK at 256*fs.
	ratio := mathx.Max(1, mathx.RoundDiv(256, slotBits))

	clk1 := byte(clkEnableAll)
	var clk2 byte
	if !cfg.UseMCLK {
		// BCLK is multiplied up to 256*fs: x1, x2, x4 or x8.
		if 256%slotBits != 0 || !mathx.IsPow2(ratio) || ratio > 8 {
			return errcode.Wrap(errcode.Unsupported, "es8311_format", ErrFormat)
		}
		clk1 |= clkFromBCLK
		for m := ratio; m > 1; m >>= 1 {
			clk2 += 1 << 3
		}
	}
	return d.writeAll([][2]byte{
		{regClkMgr1, clk1},
		{regClkMgr2, clk2},
		{regClkMgr3, 0x10},
		{regClkMgr4, 0x10},
		{regClkMgr5, 0x00},
		{regClkMgr6, byte(ratio - 1)},
		{regClkMgr7, 0x00},
		{regClkMgr8, 0xFF},
		{regSDPIn, wl << 2},
		{regSDPOut, wl << 2},
	})
}

func (d *Device) writeAll(regs [][2]byte) error {
	for _, rv := range regs {
		if err := d.write(rv[0], rv[1]); err != nil {
			return errcode.Wrap(errcode.MapDriverErr(err), "es8311_write", err)
		}
	}
	return nil
}

// SetDACVolume sets output volume in 0.5 dB steps (VolumeUnity = 0 dB).
func (d *Device) SetDACVolume(v uint8) error {
	if err := d.write(regDACVol, v); err != nil {
		return err
	}
	d.dacVol = v
	return nil
}

// SetADCVolume sets input volume in 0.5 dB steps (VolumeUnity = 0 dB).
func (d *Device) SetADCVolume(v uint8) error { return d.write(regADCVol, v) }

// SetVolumePercent maps 0..100 onto mute..0 dB.
func (d *Device) SetVolumePercent(pct uint8) error {
	v := mathx.MapU16(uint16(pct), 0, 100, 0, VolumeUnity)
	return d.SetDACVolume(uint8(v))
}

// DACVolume is the last volume written.
func (d *Device) DACVolume() uint8 { return d.dacVol }

// RampDACVolume fades to 'to' over total in steps. tick paces the ramp and
// may cancel it by returning false.
func (d *Device) RampDACVolume(to uint8, total time.Duration, steps int, tick ramp.Tick) error {
	var err error
	ramp.Linear(d.dacVol, to, total, steps, func(dd time.Duration) bool {
		return err == nil && tick(dd)
	}, func(v uint8) {
		if err == nil {
			err = d.SetDACVolume(v)
		}
	})
	return err
}

// Mute silences the DAC without touching volume.
func (d *Device) Mute(on bool) error {
	var v byte
	if on {
		v = dacMuteBits
	}
	if err := d.write(regDACMute, v); err != nil {
		return err
	}
	d.muted = on
	return nil
}

// Muted reports the last Mute state.
func (d *Device) Muted() bool { return d.muted }
