// Package config resolves the device's embedded YAML configuration and
// publishes it on the bus, one retained message per top-level key.
package config

import (
	"bytes"
	"context"
	"errors"

	"i2sduplex-go/bus"
	"i2sduplex-go/errcode"
	"i2sduplex-go/types"
	"i2sduplex-go/x/strx"

	"gopkg.in/yaml.v3"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey is the context key holding the device ID.
const CtxDeviceKey ctxKey = "device"

// Defaults applied to keys the YAML leaves out.
const (
	DefaultName          = "i2s0"
	DefaultSampleRate    = 16000
	DefaultBitsPerSample = 16
	DefaultChannel       = "stereo"
	DefaultBoard         = "esp32"
	DefaultCodecAddress  = 0x18
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Topic returns the retained topic for a top-level key.
func Topic(key string) bus.Topic { return bus.T(configPrefix, key) }

// Parse decodes a device document. Unknown keys are rejected; missing
// optional keys take defaults. Value ranges are left to the consumers.
func Parse(raw []byte) (*types.DeviceConfig, error) {
	// Numeric defaults are seeded before decoding so that only absent keys
	// take them; an explicit 0 is kept and rejected by the driver.
	cfg := &types.DeviceConfig{Audio: types.AudioConfig{
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
	}}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config_parse", Err: err}
	}
	if err := required(&cfg.Audio); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func required(a *types.AudioConfig) error {
	missing := ""
	switch {
	case a.LRCLK == nil:
		missing = "i2s_lrclk_pin"
	case a.BCLK == nil:
		missing = "i2s_bclk_pin"
	case a.DIN == nil:
		missing = "i2s_din_pin"
	case a.DOUT == nil:
		missing = "i2s_dout_pin"
	default:
		return nil
	}
	return &errcode.E{C: errcode.InvalidParams, Op: "config_parse", Msg: "audio." + missing + " is required"}
}

func applyDefaults(cfg *types.DeviceConfig) {
	cfg.Board = strx.Coalesce(cfg.Board, DefaultBoard)
	a := &cfg.Audio
	a.Name = strx.Coalesce(a.Name, DefaultName)
	a.Channel = strx.Coalesce(a.Channel, DefaultChannel)
	if a.Codec != nil {
		a.Codec.Type = strx.Coalesce(a.Codec.Type, "es8311")
		a.Codec.Bus = strx.Coalesce(a.Codec.Bus, "i2c0")
		if a.Codec.Address == 0 {
			a.Codec.Address = DefaultCodecAddress
		}
	}
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Load resolves and parses the config for the device named in ctx.
func Load(ctx context.Context) (*types.DeviceConfig, error) {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return nil, errors.New("missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}
	return Parse(raw)
}

// Publish sends each top-level key as a retained message.
func Publish(conn *bus.Connection, cfg *types.DeviceConfig) {
	conn.Publish(conn.NewMessage(Topic("board"), cfg.Board, true))
	audio := cfg.Audio
	conn.Publish(conn.NewMessage(Topic("audio"), &audio, true))
}

// Run loads and publishes the device config, reporting the first error.
func (s *ConfigService) Run(ctx context.Context, conn *bus.Connection) error {
	cfg, err := Load(ctx)
	if err != nil {
		println("[config] error:", err.Error())
		return err
	}
	Publish(conn, cfg)
	println("[config] published", cfg.Audio.Name, "on board", cfg.Board)
	return nil
}

// Start launches Run in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() { _ = s.Run(ctx, conn) }()
}
