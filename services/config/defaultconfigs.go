package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML for that device
// -----------------------------------------------------------------------------

// ESP32-S3 board with an ES8311 codec clocked from MCLK.
const cfgS3Codec = `
board: esp32s3
audio:
  name: codec
  i2s_lrclk_pin: 45
  i2s_bclk_pin: 17
  i2s_mclk_pin: 2
  i2s_din_pin: 16
  i2s_dout_pin: 15
  sample_rate: 16000
  bits_per_sample: 16
  channel: stereo
  codec:
    type: es8311
    bus: i2c0
    use_mclk: true
    volume: 80
`

// Classic ESP32 with an I2S MEMS mic and amplifier, no MCLK.
const cfgESP32 = `
board: esp32
audio:
  name: mic
  i2s_lrclk_pin: 25
  i2s_bclk_pin: 26
  i2s_din_pin: 35
  i2s_dout_pin: 22
  sample_rate: 16000
  bits_per_sample: 32
  channel: left
`

// Host simulation used by cmd/i2s-loopback.
const cfgHost = `
board: esp32
audio:
  name: loop
  i2s_lrclk_pin: 25
  i2s_bclk_pin: 26
  i2s_mclk_pin: 0
  i2s_din_pin: 35
  i2s_dout_pin: 22
  buffer_count: 4
  buffer_frames: 160
  tick_ms: 5
  stats_interval_ms: 500
  codec:
    bus: i2c0
`

var embeddedConfigs = map[string][]byte{
	"esp32s3-codec": []byte(cfgS3Codec),
	"esp32-mic":     []byte(cfgESP32),
	"host":          []byte(cfgHost),
}
