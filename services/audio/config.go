package audio

import (
	"time"

	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/errcode"
	"i2sduplex-go/types"
	"i2sduplex-go/x/timex"
)

const (
	defaultStatsInterval = time.Second
	minTick              = time.Millisecond
)

func pin(p *int) int {
	if p == nil {
		return i2sduplex.NoPin
	}
	return *p
}

// TransportConfig converts the bus payload into driver settings. Range
// checks are left to Transport.Setup.
func TransportConfig(ac *types.AudioConfig) (i2sduplex.Config, i2sduplex.Options, error) {
	mode, ok := i2sduplex.ParseChannelMode(ac.Channel)
	if !ok {
		return i2sduplex.Config{}, i2sduplex.Options{},
			&errcode.E{C: errcode.InvalidChannelMode, Op: "audio_config", Msg: ac.Channel}
	}
	cfg := i2sduplex.Config{
		Pins: i2sduplex.Pins{
			LRCLK: pin(ac.LRCLK),
			BCLK:  pin(ac.BCLK),
			MCLK:  pin(ac.MCLK),
			DIN:   pin(ac.DIN),
			DOUT:  pin(ac.DOUT),
		},
		SampleRate:    ac.SampleRate,
		BitsPerSample: ac.BitsPerSample,
		Channel:       mode,
	}
	opts := i2sduplex.Options{
		BufferCount:   ac.BufferCount,
		BufferFrames:  ac.BufferFrames,
		RxQueueFrames: ac.QueueFrames,
		TxQueueFrames: ac.QueueFrames,
	}
	return cfg, opts, nil
}

// tickInterval defaults to half a DMA buffer period so Tick keeps at least
// one buffer of slack in each direction.
func tickInterval(ac *types.AudioConfig) time.Duration {
	if ac.TickMs > 0 {
		return time.Duration(ac.TickMs) * time.Millisecond
	}
	frames := ac.BufferFrames
	if frames <= 0 {
		frames = i2sduplex.DefaultBufferFrames
	}
	d := timex.FramesDuration(frames, ac.SampleRate) / 2
	if d < minTick {
		d = minTick
	}
	return d
}

func statsInterval(ac *types.AudioConfig) time.Duration {
	if ac.StatsIntervalMs > 0 {
		return time.Duration(ac.StatsIntervalMs) * time.Millisecond
	}
	return defaultStatsInterval
}
