package audio

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"i2sduplex-go/drivers/i2sduplex"
)

// meterName is the instrumentation scope for audio transport metrics.
const meterName = "i2sduplex-go/services/audio"

// StatsFunc returns the current transport stats, ok=false while no transport
// is running.
type StatsFunc func() (i2sduplex.Stats, bool)

// Metrics exports transport counters through OpenTelemetry. Dropout counters
// are observed on collection; Faults and SetupErrors are recorded directly.
type Metrics struct {
	Faults      metric.Int64Counter
	SetupErrors metric.Int64Counter

	attrs metric.MeasurementOption
	reg   metric.Registration
}

// NewMetrics registers the audio instruments for one named transport. A nil
// mp uses the global provider.
func NewMetrics(mp metric.MeterProvider, name string, stats StatsFunc) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	met := &Metrics{attrs: metric.WithAttributes(attribute.String("transport", name))}

	var err error
	if met.Faults, err = m.Int64Counter("audio.faults",
		metric.WithDescription("Transports that entered the faulted state."),
	); err != nil {
		return nil, err
	}
	if met.SetupErrors, err = m.Int64Counter("audio.setup.errors",
		metric.WithDescription("Failed transport setups by error code."),
	); err != nil {
		return nil, err
	}

	counters := []struct {
		name, desc, unit string
		get              func(i2sduplex.Stats) uint64
	}{
		{"audio.rx_overflow", "Frames dropped from a full receive queue.", "{frame}", func(s i2sduplex.Stats) uint64 { return s.RxOverflow }},
		{"audio.tx_underrun", "Transmit buffers replayed before refill.", "{buffer}", func(s i2sduplex.Stats) uint64 { return s.TxUnderrun }},
		{"audio.tx_overrun", "Writes rejected by a full transmit queue.", "{call}", func(s i2sduplex.Stats) uint64 { return s.TxOverrun }},
		{"audio.rx_overrun", "Receive buffers overwritten before service.", "{buffer}", func(s i2sduplex.Stats) uint64 { return s.RxOverrun }},
		{"audio.rx_buffers", "Receive buffers serviced.", "{buffer}", func(s i2sduplex.Stats) uint64 { return s.RxBuffers }},
		{"audio.tx_buffers", "Transmit buffers serviced.", "{buffer}", func(s i2sduplex.Stats) uint64 { return s.TxBuffers }},
	}
	observables := make([]metric.Observable, 0, len(counters)+1)
	insts := make([]metric.Int64ObservableCounter, len(counters))
	for i, c := range counters {
		if insts[i], err = m.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		); err != nil {
			return nil, err
		}
		observables = append(observables, insts[i])
	}
	rate, err := m.Int64ObservableGauge("audio.sample_rate.actual",
		metric.WithDescription("Achieved sample rate after clock division."),
		metric.WithUnit("Hz"),
	)
	if err != nil {
		return nil, err
	}
	observables = append(observables, rate)

	met.reg, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s, ok := stats()
		if !ok {
			return nil
		}
		for i, c := range counters {
			o.ObserveInt64(insts[i], int64(c.get(s)), met.attrs)
		}
		o.ObserveInt64(rate, int64(s.ActualSampleRate), met.attrs)
		return nil
	}, observables...)
	if err != nil {
		return nil, err
	}
	return met, nil
}

// RecordFault counts a transition to faulted.
func (m *Metrics) RecordFault(ctx context.Context) { m.Faults.Add(ctx, 1, m.attrs) }

// RecordSetupError counts a failed setup under its error code.
func (m *Metrics) RecordSetupError(ctx context.Context, code string) {
	m.SetupErrors.Add(ctx, 1, m.attrs, metric.WithAttributes(attribute.String("code", code)))
}

// Close unregisters the observation callback.
func (m *Metrics) Close() error {
	if m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}
