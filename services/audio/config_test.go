package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/errcode"
	"i2sduplex-go/types"
)

func ip(v int) *int { return &v }

func TestTransportConfig(t *testing.T) {
	ac := &types.AudioConfig{
		LRCLK: ip(45), BCLK: ip(17), DIN: ip(16), DOUT: ip(15),
		SampleRate: 48000, BitsPerSample: 24, Channel: "right",
		BufferCount: 6, BufferFrames: 128, QueueFrames: 512,
	}
	cfg, opts, err := TransportConfig(ac)
	if err != nil {
		t.Fatal(err)
	}
	want := i2sduplex.Config{
		Pins:          i2sduplex.Pins{LRCLK: 45, BCLK: 17, MCLK: i2sduplex.NoPin, DIN: 16, DOUT: 15},
		SampleRate:    48000,
		BitsPerSample: 24,
		Channel:       i2sduplex.ChannelRight,
	}
	if d := cmp.Diff(want, cfg); d != "" {
		t.Fatalf("config (-want +got):\n%s", d)
	}
	wantOpts := i2sduplex.Options{BufferCount: 6, BufferFrames: 128, RxQueueFrames: 512, TxQueueFrames: 512}
	if d := cmp.Diff(wantOpts, opts); d != "" {
		t.Fatalf("options (-want +got):\n%s", d)
	}
}

func TestTransportConfigBadChannel(t *testing.T) {
	_, _, err := TransportConfig(&types.AudioConfig{Channel: "mono"})
	if !errors.Is(err, errcode.InvalidChannelMode) {
		t.Fatalf("err = %v", err)
	}
}

func TestIntervals(t *testing.T) {
	cases := []struct {
		name      string
		ac        types.AudioConfig
		tick, sts time.Duration
	}{
		{"defaults", types.AudioConfig{SampleRate: 16000}, 8 * time.Millisecond, time.Second},
		{"explicit", types.AudioConfig{SampleRate: 16000, TickMs: 3, StatsIntervalMs: 250}, 3 * time.Millisecond, 250 * time.Millisecond},
		{"floor", types.AudioConfig{SampleRate: 96000, BufferFrames: 16}, time.Millisecond, time.Second},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := tickInterval(&c.ac); got != c.tick {
				t.Errorf("tick = %v, want %v", got, c.tick)
			}
			if got := statsInterval(&c.ac); got != c.sts {
				t.Errorf("stats = %v, want %v", got, c.sts)
			}
		})
	}
}
