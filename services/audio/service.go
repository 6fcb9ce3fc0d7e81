// Package audio runs one I2S duplex transport as a bus service. It waits for
// the retained audio config, brings up the optional codec and the transport,
// then drives Tick on a timer and reports state and stats.
package audio

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"i2sduplex-go/bus"
	"i2sduplex-go/drivers/i2sduplex"
	"i2sduplex-go/errcode"
	"i2sduplex-go/services/config"
	"i2sduplex-go/types"
	"i2sduplex-go/x/timex"
)

// Codec is the control side of an external codec sharing the I2S bus. Open
// resets the codec and matches it to the transport format.
type Codec interface {
	Open(sampleRate uint32, bitsPerSample uint8, useMCLK bool) error
}

// VolumeSetter is implemented by codecs with an output volume control.
type VolumeSetter interface {
	SetVolumePercent(pct uint8) error
}

// State levels published on audio/<name>/state.
const (
	LevelRunning = "running"
	LevelStopped = "stopped"
	LevelFaulted = "faulted"
	LevelError   = "error"
)

type Service struct {
	hal   i2sduplex.Peripheral
	codec Codec
	mp    metric.MeterProvider

	mu    sync.Mutex
	tr    *i2sduplex.Transport
	ready chan struct{}
}

// New builds a service for hal. codec and mp may be nil.
func New(hal i2sduplex.Peripheral, codec Codec, mp metric.MeterProvider) *Service {
	return &Service{hal: hal, codec: codec, mp: mp, ready: make(chan struct{})}
}

// Ready is closed once the transport is running.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// Transport returns the running transport, or nil before Ready. Callers may
// read and write frames from their own goroutines.
func (s *Service) Transport() *i2sduplex.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

func (s *Service) stats() (i2sduplex.Stats, bool) {
	tr := s.Transport()
	if tr == nil {
		return i2sduplex.Stats{}, false
	}
	return tr.Stats(), true
}

func stateTopic(name string) bus.Topic   { return bus.T("audio", name, "state") }
func statsTopic(name string) bus.Topic   { return bus.T("audio", name, "stats") }
func controlTopic(name string) bus.Topic { return bus.T("audio", name, "control", bus.Plus) }

func publishState(conn *bus.Connection, name, level string, err error) {
	st := &types.AudioState{Level: level, Status: string(errcode.Of(err)), TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	conn.Publish(conn.NewMessage(stateTopic(name), st, true))
}

func snapshot(tr *i2sduplex.Transport) *types.AudioStats {
	st := tr.Stats()
	return &types.AudioStats{
		RxOverflow:       st.RxOverflow,
		TxUnderrun:       st.TxUnderrun,
		TxOverrun:        st.TxOverrun,
		RxOverrun:        st.RxOverrun,
		RxBuffers:        st.RxBuffers,
		TxBuffers:        st.TxBuffers,
		RxQueued:         tr.RxQueued(),
		TxQueued:         tr.TxQueued(),
		SampleRate:       tr.SampleRate(),
		ActualSampleRate: st.ActualSampleRate,
		TS:               timex.NowMs(),
	}
}

func (s *Service) waitConfig(ctx context.Context, conn *bus.Connection) (*types.AudioConfig, error) {
	sub := conn.Subscribe(config.Topic("audio"))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil, bus.ErrClosed
			}
			if ac, ok := msg.Payload.(*types.AudioConfig); ok && ac != nil {
				return ac, nil
			}
			println("[audio] warn: ignoring config payload on", msg.Topic.String())
		}
	}
}

func (s *Service) setupCodec(ac *types.AudioConfig) error {
	if s.codec == nil || ac.Codec == nil {
		return nil
	}
	if err := s.codec.Open(ac.SampleRate, ac.BitsPerSample, ac.Codec.UseMCLK); err != nil {
		return err
	}
	if ac.Codec.Volume != nil {
		if v, ok := s.codec.(VolumeSetter); ok {
			if err := v.SetVolumePercent(*ac.Codec.Volume); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run blocks until ctx ends. Configuration and setup failures are published
// on the state topic and returned; a transport fault is published and the
// service keeps answering control requests. Instruments registered on the
// meter provider live until Run returns.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) error {
	ac, err := s.waitConfig(ctx, conn)
	if err != nil {
		return err
	}
	name := ac.Name

	var met *Metrics
	if s.mp != nil {
		if met, err = NewMetrics(s.mp, name, s.stats); err != nil {
			println("[audio] warn: metrics disabled:", err.Error())
			met = nil
		} else {
			defer met.Close()
		}
	}
	fail := func(err error) error {
		println("[audio]", name, "setup error:", err.Error())
		if met != nil {
			met.RecordSetupError(ctx, string(errcode.Of(err)))
		}
		publishState(conn, name, LevelError, err)
		return err
	}

	cfg, opts, err := TransportConfig(ac)
	if err != nil {
		return fail(err)
	}
	if err := s.setupCodec(ac); err != nil {
		return fail(err)
	}
	tr := i2sduplex.New(s.hal, opts)
	if err := tr.Setup(cfg); err != nil {
		return fail(err)
	}

	s.mu.Lock()
	s.tr = tr
	s.mu.Unlock()
	close(s.ready)
	publishState(conn, name, LevelRunning, nil)
	println("[audio]", name, "running at", tr.Stats().ActualSampleRate, "Hz")

	ctrl := conn.Subscribe(controlTopic(name))
	defer conn.Unsubscribe(ctrl)

	tick := time.NewTicker(tickInterval(ac))
	defer tick.Stop()
	statsT := time.NewTicker(statsInterval(ac))
	defer statsT.Stop()
	tickC := tick.C

	for {
		select {
		case <-ctx.Done():
			if tr.State() != i2sduplex.Faulted {
				_ = tr.Stop()
				publishState(conn, name, LevelStopped, nil)
			}
			return nil

		case <-tickC:
			if err := tr.Tick(); err != nil {
				tickC = nil
				println("[audio]", name, "faulted:", err.Error())
				if met != nil {
					met.RecordFault(ctx)
				}
				publishState(conn, name, LevelFaulted, err)
				conn.Publish(conn.NewMessage(statsTopic(name), snapshot(tr), true))
			}

		case <-statsT.C:
			conn.Publish(conn.NewMessage(statsTopic(name), snapshot(tr), true))

		case msg, ok := <-ctrl.Channel():
			if !ok {
				return nil
			}
			s.control(conn, tr, name, msg)
		}
	}
}

func (s *Service) control(conn *bus.Connection, tr *i2sduplex.Transport, name string, msg *bus.Message) {
	verb, _ := msg.Topic[len(msg.Topic)-1].(string)
	switch verb {
	case "stop":
		if tr.State() == i2sduplex.Faulted {
			conn.Reply(msg, errcode.ComponentFaulted, false)
			return
		}
		_ = tr.Stop()
		publishState(conn, name, LevelStopped, nil)
		conn.Reply(msg, errcode.OK, false)
	case "dump_config":
		tr.DumpConfig()
		conn.Reply(msg, errcode.OK, false)
	case "stats":
		conn.Reply(msg, snapshot(tr), false)
	default:
		conn.Reply(msg, errcode.Unsupported, false)
	}
}

// Start launches Run in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() { _ = s.Run(ctx, conn) }()
}
