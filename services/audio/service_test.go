//go:build !rp2040 && !rp2350

package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"i2sduplex-go/bus"
	"i2sduplex-go/drivers/es8311"
	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/errcode"
	"i2sduplex-go/platform"
	"i2sduplex-go/platform/boards"
	"i2sduplex-go/services/config"
	"i2sduplex-go/types"
)

func hostAudioConfig(name string) *types.AudioConfig {
	d := boards.ESP32.Defaults
	return &types.AudioConfig{
		Name:  name,
		LRCLK: ip(d.I2S_LRCLK), BCLK: ip(d.I2S_BCLK), DIN: ip(d.I2S_DIN), DOUT: ip(d.I2S_DOUT),
		SampleRate: 16000, BitsPerSample: 16, Channel: "stereo",
		BufferCount: 4, BufferFrames: 32, QueueFrames: 256,
		TickMs: 1, StatsIntervalMs: 10,
	}
}

func publishConfig(conn *bus.Connection, ac *types.AudioConfig) {
	conn.Publish(conn.NewMessage(config.Topic("audio"), ac, true))
}

func waitState(t *testing.T, sub *bus.Subscription, level string) types.AudioState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			st, ok := msg.Payload.(*types.AudioState)
			if ok && st.Level == level {
				return *st
			}
		case <-timeout:
			t.Fatalf("no %q state", level)
		}
	}
}

func TestServiceLoopback(t *testing.T) {
	reader, mp := newTestReader(t)
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	publishConfig(conn, hostAudioConfig("lb"))

	// Paced: Tick advances the simulation by wall clock, 2 ms per buffer.
	h := platform.NewHostI2S(boards.ESP32)
	h.SetLoopback(true)
	h.SetPaced(time.Now)
	svc := New(h, nil, mp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, conn) }()

	select {
	case <-svc.Ready():
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("service not ready")
	}
	states := conn.Subscribe(stateTopic("lb"))
	waitState(t, states, LevelRunning)

	tr := svc.Transport()
	want := i2sduplex.Frame{L: 7, R: -7}
	found := false
	deadline := time.Now().Add(2 * time.Second)
	for !found && time.Now().Before(deadline) {
		_ = tr.WriteFrames([]i2sduplex.Frame{want})
		time.Sleep(2 * time.Millisecond)
		fs, err := tr.ReadFrames(256)
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range fs {
			if f == want {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("written frame never looped back")
	}

	rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer rcancel()
	reply, err := conn.RequestWait(rctx, conn.NewMessage(bus.T("audio", "lb", "control", "stats"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	st, ok := reply.Payload.(*types.AudioStats)
	if !ok || st.RxBuffers == 0 || st.SampleRate != 16000 || st.ActualSampleRate != 16000 {
		t.Fatalf("stats reply = %#v", reply.Payload)
	}

	if got := sumValue(t, collect(t, reader), "audio.rx_buffers"); got == 0 {
		t.Fatal("rx_buffers not exported")
	}

	reply, err = conn.RequestWait(rctx, conn.NewMessage(bus.T("audio", "lb", "control", "dump_config"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Payload != errcode.OK {
		t.Fatalf("dump_config reply = %v", reply.Payload)
	}

	reply, err = conn.RequestWait(rctx, conn.NewMessage(bus.T("audio", "lb", "control", "stop"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Payload != errcode.OK {
		t.Fatalf("stop reply = %v", reply.Payload)
	}
	if st := waitState(t, states, LevelStopped); st.Status != string(errcode.OK) {
		t.Fatalf("stopped state = %+v", st)
	}
	if h.Running() {
		t.Fatal("peripheral still running")
	}
	if tr.State() != i2sduplex.Stopped {
		t.Fatalf("state = %v", tr.State())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tr.State() != i2sduplex.Stopped {
		t.Fatalf("state after cancel = %v", tr.State())
	}
}

func TestServiceMetricsEndWithRun(t *testing.T) {
	reader, mp := newTestReader(t)
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	publishConfig(conn, hostAudioConfig("life"))
	h := platform.NewHostI2S(boards.ESP32)
	h.SetPaced(time.Now)
	svc := New(h, nil, mp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, conn) }()
	<-svc.Ready()

	// Collected while Run is live: the rate gauge is observed.
	if m := findMetric(collect(t, reader), "audio.sample_rate.actual"); m == nil {
		t.Fatal("sample rate gauge missing while running")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m := findMetric(collect(t, reader), "audio.rx_buffers"); m != nil {
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
			t.Fatalf("observed after Run returned: %+v", sum.DataPoints)
		}
	}
}

func TestServiceSetupError(t *testing.T) {
	reader, mp := newTestReader(t)
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	ac := hostAudioConfig("bad")
	ac.DIN = ip(45)
	publishConfig(conn, ac)

	svc := New(platform.NewHostI2S(boards.ESP32), nil, mp)
	err := svc.Run(context.Background(), conn)
	if !errors.Is(err, errcode.PinOutOfRange) {
		t.Fatalf("err = %v", err)
	}
	if svc.Transport() != nil {
		t.Fatal("transport retained after failed setup")
	}

	states := conn.Subscribe(stateTopic("bad"))
	st := waitState(t, states, LevelError)
	if st.Status != string(errcode.PinOutOfRange) || st.Error == "" {
		t.Fatalf("state = %+v", st)
	}
	if got := sumValue(t, collect(t, reader), "audio.setup.errors"); got != 1 {
		t.Fatalf("setup errors = %d", got)
	}
}

func TestServiceRejectsZeroSampleRate(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	ac := hostAudioConfig("zero")
	ac.SampleRate = 0
	publishConfig(conn, ac)

	h := platform.NewHostI2S(boards.ESP32)
	err := New(h, nil, nil).Run(context.Background(), conn)
	if !errors.Is(err, errcode.InvalidSampleRate) {
		t.Fatalf("err = %v", err)
	}
	if h.Running() {
		t.Fatal("peripheral started at 0 Hz")
	}
}

func TestServiceFaultKeepsControl(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	publishConfig(conn, hostAudioConfig("f"))
	h := platform.NewHostI2S(boards.ESP32)
	svc := New(h, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, conn) }()
	<-svc.Ready()

	states := conn.Subscribe(stateTopic("f"))
	h.Fail(errors.New("dma descriptor error"))
	st := waitState(t, states, LevelFaulted)
	if st.Status != string(errcode.ComponentFaulted) {
		t.Fatalf("state = %+v", st)
	}

	rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer rcancel()
	reply, err := conn.RequestWait(rctx, conn.NewMessage(bus.T("audio", "f", "control", "stop"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Payload != errcode.ComponentFaulted {
		t.Fatalf("stop reply = %v", reply.Payload)
	}
	reply, err = conn.RequestWait(rctx, conn.NewMessage(bus.T("audio", "f", "control", "reboot"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Payload != errcode.Unsupported {
		t.Fatalf("unknown verb reply = %v", reply.Payload)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.Transport().State() != i2sduplex.Faulted {
		t.Fatal("fault was cleared")
	}
}

func TestServiceConfiguresCodec(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	vol := uint8(50)
	ac := hostAudioConfig("codec")
	ac.Codec = &types.CodecConfig{Type: "es8311", Bus: "i2c0", Address: es8311.Address, Volume: &vol}
	publishConfig(conn, ac)

	i2c := platform.NewHostI2C()
	i2c.AddDevice(es8311.Address, map[byte]byte{0xFD: 0x83, 0xFE: 0x11})
	codec := es8311.New(i2c, es8311.Address)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	svc := New(platform.NewHostI2S(boards.ESP32), codec, nil)
	go func() { done <- svc.Run(ctx, conn) }()
	<-svc.Ready()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if codec.DACVolume() != 95 {
		t.Fatalf("dac volume = %#x", codec.DACVolume())
	}
	if w := i2c.Writes(); len(w) == 0 || w[0].Reg != 0x00 || w[0].Val != 0x1F {
		t.Fatalf("codec not reset first: %v", w)
	}
}

func TestServiceCodecFailureAbortsSetup(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	ac := hostAudioConfig("nocodec")
	ac.Codec = &types.CodecConfig{Type: "es8311", Bus: "i2c0", Address: es8311.Address}
	publishConfig(conn, ac)

	codec := es8311.New(platform.NewHostI2C(), es8311.Address)
	h := platform.NewHostI2S(boards.ESP32)
	err := New(h, codec, nil).Run(context.Background(), conn)
	if err == nil {
		t.Fatal("expected codec error")
	}
	if h.Running() {
		t.Fatal("transport started without codec")
	}
}
