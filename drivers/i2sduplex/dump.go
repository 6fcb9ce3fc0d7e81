package i2sduplex

import "i2sduplex-go/x/strconvx"

func gpio(p int) string {
	if p == NoPin {
		return "none"
	}
	return "GPIO" + strconvx.Itoa(p)
}

func channelLabel(m ChannelMode) string {
	switch m {
	case ChannelStereo:
		return "Stereo"
	case ChannelLeft:
		return "Left"
	default:
		return "Right"
	}
}

// DumpConfig logs the configuration and status.
func (t *Transport) DumpConfig() {
	t.life.Lock()
	cfg, plan := t.cfg, t.plan
	t.life.Unlock()
	st := t.State()

	println("[i2s] I2S Duplex Configuration:")
	println("[i2s]   LRCLK Pin:", gpio(cfg.Pins.LRCLK))
	println("[i2s]   BCLK Pin:", gpio(cfg.Pins.BCLK))
	println("[i2s]   MCLK Pin:", gpio(cfg.Pins.MCLK))
	println("[i2s]   DIN Pin (Microphone):", gpio(cfg.Pins.DIN))
	println("[i2s]   DOUT Pin (Speaker):", gpio(cfg.Pins.DOUT))
	println("[i2s]   Sample Rate:", cfg.SampleRate, "Hz")
	println("[i2s]   Bits per Sample:", cfg.BitsPerSample)
	println("[i2s]   Channel Format:", channelLabel(cfg.Channel))
	if plan.Divider != 0 {
		println("[i2s]   Clock Divider:", plan.DivInt, "+", plan.DivFrac, "/", uint32(1)<<plan.FracBits)
		println("[i2s]   Actual Sample Rate:", plan.ActualSampleRate, "Hz")
	}
	status := "Failed"
	if st == Running {
		status = "Ready"
	}
	println("[i2s]   Status:", status, "("+st.String()+")")
}
