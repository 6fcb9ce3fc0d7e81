// Package i2sduplex drives a DMA-backed I2S peripheral in full duplex.
//
// The driver is cooperative: the owner calls Tick from its main loop, which
// drains completed receive buffers into a bounded RX queue and refills free
// transmit buffers from a bounded TX queue. Callers exchange PCM frames with
// ReadFrames and WriteFrames from any goroutine.
//
//	t := i2sduplex.New(periph, i2sduplex.Options{})
//	if err := t.Setup(cfg); err != nil { ... }
//	for {
//		_ = t.Tick()
//		n, _ := t.ReadFramesInto(buf)
//		...
//	}
//
// Completion events from the peripheral only bump an atomic counter; all
// decoding, encoding and queue work happens inside Tick. Dropouts (overrun,
// underrun, queue overflow) are counted in Stats and never returned as errors.
//
// The package avoids fmt so it builds for TinyGo targets.
package i2sduplex

// ChannelMode selects which I2S slots carry audio.
type ChannelMode uint8

const (
	ChannelStereo ChannelMode = iota // L,R interleaved
	ChannelLeft                      // one sample per frame, left slot
	ChannelRight                     // one sample per frame, right slot
)

// Channels is the number of samples per frame on the wire (0 if unknown).
func (m ChannelMode) Channels() int {
	switch m {
	case ChannelStereo:
		return 2
	case ChannelLeft, ChannelRight:
		return 1
	default:
		return 0
	}
}

func (m ChannelMode) String() string {
	switch m {
	case ChannelStereo:
		return "stereo"
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseChannelMode accepts the configuration spellings "left", "right" and
// "stereo".
func ParseChannelMode(s string) (ChannelMode, bool) {
	switch s {
	case "stereo":
		return ChannelStereo, true
	case "left":
		return ChannelLeft, true
	case "right":
		return ChannelRight, true
	default:
		return 0, false
	}
}

// Sample rate and bit depth limits.
const (
	MinSampleRate = 8000
	MaxSampleRate = 96000
)

// NoPin marks an unused optional pin (only MCLK may be absent).
const NoPin = -1

// Pins binds I2S signal roles to GPIO numbers.
type Pins struct {
	LRCLK int // word select / frame clock
	BCLK  int // bit clock
	MCLK  int // master clock, NoPin if unused
	DIN   int // data in (microphone)
	DOUT  int // data out (speaker)
}

// Config is fixed for the lifetime of a Transport.
type Config struct {
	Pins          Pins
	SampleRate    uint32
	BitsPerSample uint8
	Channel       ChannelMode
}

// DefaultConfig returns the stock audio parameters (16 kHz, 16-bit, stereo)
// with MCLK unused. Data pins must still be assigned.
func DefaultConfig() Config {
	return Config{
		Pins:          Pins{MCLK: NoPin},
		SampleRate:    16000,
		BitsPerSample: 16,
		Channel:       ChannelStereo,
	}
}

// Options sizes the DMA ring and the caller-facing queues. Zero fields take
// defaults.
type Options struct {
	// BufferCount is the number of DMA buffers per direction. Default 4, min 2.
	BufferCount int
	// BufferFrames is the number of PCM frames per DMA buffer. Default 256.
	BufferFrames int
	// RxQueueFrames bounds the receive queue. Default 1024.
	RxQueueFrames int
	// TxQueueFrames bounds the transmit queue. Default 1024.
	TxQueueFrames int
}

const (
	DefaultBufferCount  = 4
	DefaultBufferFrames = 256
	DefaultQueueFrames  = 1024
)

func (o Options) withDefaults() Options {
	if o.BufferCount == 0 {
		o.BufferCount = DefaultBufferCount
	}
	if o.BufferFrames == 0 {
		o.BufferFrames = DefaultBufferFrames
	}
	if o.RxQueueFrames <= 0 {
		o.RxQueueFrames = DefaultQueueFrames
	}
	if o.TxQueueFrames <= 0 {
		o.TxQueueFrames = DefaultQueueFrames
	}
	return o
}
