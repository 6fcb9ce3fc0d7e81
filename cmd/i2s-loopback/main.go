//go:build !rp2040 && !rp2350

// i2s-loopback runs the audio service against the host I2S simulation with
// DOUT wired back to DIN. It plays a tone for a few seconds, counts the
// frames that come back and prints the transport counters.
package main

import (
	"context"
	"errors"
	"math"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"i2sduplex-go/bus"
	"i2sduplex-go/drivers/es8311"
	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/platform"
	"i2sduplex-go/platform/boards"
	"i2sduplex-go/services/audio"
	"i2sduplex-go/services/config"
	"i2sduplex-go/types"
	"i2sduplex-go/x/timex"
)

const (
	device   = "host"
	runFor   = 3 * time.Second
	toneHz   = 440
	toneAmpl = 8000
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, device)

	cfg, err := config.Load(ctx)
	if err != nil {
		println("[main] config error:", err.Error())
		os.Exit(1)
	}
	board, ok := boards.ByName(cfg.Board)
	if !ok {
		println("[main] unknown board:", cfg.Board)
		os.Exit(1)
	}
	println("[main] board", board.Name, "device", device)

	b := bus.NewBus(8)
	cfgConn := b.NewConnection("config")
	audioConn := b.NewConnection("audio")
	uiConn := b.NewConnection("ui")

	h := platform.NewHostI2S(board)
	h.SetLoopback(true)
	h.SetPaced(time.Now)

	var codec audio.Codec
	if cc := cfg.Audio.Codec; cc != nil {
		i2c := platform.NewHostI2C()
		// ES8311 identification registers.
		i2c.AddDevice(cc.Address, map[byte]byte{0xFD: 0x83, 0xFE: 0x11})
		codec = es8311.New(i2c, cc.Address)
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	svc := audio.New(h, codec, mp)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return config.NewConfigService().Run(gctx, cfgConn) })
	g.Go(func() error { return svc.Run(gctx, audioConn) })
	g.Go(func() error { return monitor(gctx, uiConn, cfg.Audio.Name) })
	g.Go(func() error { return feed(gctx, svc) })
	// Observable instruments are unregistered when the audio service
	// returns, so collect while it is still running.
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-time.After(runFor):
			printMetrics(reader)
			cancel()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		println("[main] error:", err.Error())
		os.Exit(1)
	}
}

// monitor prints state changes and periodic stats.
func monitor(ctx context.Context, conn *bus.Connection, name string) error {
	sub := conn.Subscribe(bus.T("audio", name, bus.Plus))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Channel():
			switch p := m.Payload.(type) {
			case *types.AudioState:
				println("[monitor]", m.Topic.String(), "state:", p.Level, "status:", p.Status, p.Error)
			case *types.AudioStats:
				println("[monitor] rx_buf:", p.RxBuffers, "tx_buf:", p.TxBuffers,
					"rx_q:", p.RxQueued, "tx_q:", p.TxQueued,
					"overflow:", p.RxOverflow, "underrun:", p.TxUnderrun,
					"tx_overrun:", p.TxOverrun, "rx_overrun:", p.RxOverrun)
			}
		}
	}
}

// feed keeps the transmit queue topped up with a sine tone and drains the
// receive queue, counting frames that match what was sent.
func feed(ctx context.Context, svc *audio.Service) error {
	select {
	case <-ctx.Done():
		return nil
	case <-svc.Ready():
	}
	tr := svc.Transport()
	rate := tr.SampleRate()
	chunk := i2sduplex.DefaultBufferFrames
	period := timex.FramesDuration(chunk, rate)

	out := make([]i2sduplex.Frame, chunk)
	in := make([]i2sduplex.Frame, chunk*4)
	var phase float64
	step := 2 * math.Pi * toneHz / float64(rate)
	sent, heard := 0, 0

	tick := time.NewTicker(period / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			println("[feed] sent:", sent, "heard:", heard, "per-mille:", permille(heard, sent))
			return nil
		case <-tick.C:
		}
		if tr.TxQueued() < chunk {
			for i := range out {
				s := int32(toneAmpl * math.Sin(phase))
				out[i] = i2sduplex.Frame{L: s, R: -s}
				phase += step
			}
			if err := tr.WriteFrames(out); err == nil {
				sent += len(out)
			}
		}
		n, err := tr.ReadFramesInto(in)
		if err != nil {
			return err
		}
		for _, f := range in[:n] {
			if f != (i2sduplex.Frame{}) && f.R == -f.L {
				heard++
			}
		}
	}
}

func permille(a, b int) int {
	if b == 0 {
		return 0
	}
	return a * 1000 / b
}

func printMetrics(reader *sdkmetric.ManualReader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		println("[main] metrics:", err.Error())
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range d.DataPoints {
					println("[metrics]", m.Name, "=", dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range d.DataPoints {
					println("[metrics]", m.Name, "=", dp.Value)
				}
			}
		}
	}
}
