package types

// Device configuration supplied by the config service. Each top-level key is
// published retained on "config/<key>".
type DeviceConfig struct {
	Board string      `yaml:"board" json:"board"`
	Audio AudioConfig `yaml:"audio" json:"audio"`
}

// AudioConfig is the payload on "config/audio". Pin and format keys follow
// the i2s_duplex YAML schema.
type AudioConfig struct {
	Name string `yaml:"name" json:"name"` // transport name, used in topics

	LRCLK *int `yaml:"i2s_lrclk_pin" json:"i2s_lrclk_pin"`
	BCLK  *int `yaml:"i2s_bclk_pin" json:"i2s_bclk_pin"`
	MCLK  *int `yaml:"i2s_mclk_pin,omitempty" json:"i2s_mclk_pin,omitempty"` // optional
	DIN   *int `yaml:"i2s_din_pin" json:"i2s_din_pin"`
	DOUT  *int `yaml:"i2s_dout_pin" json:"i2s_dout_pin"`

	SampleRate    uint32 `yaml:"sample_rate" json:"sample_rate"`         // default 16000
	BitsPerSample uint8  `yaml:"bits_per_sample" json:"bits_per_sample"` // default 16
	Channel       string `yaml:"channel" json:"channel"`                 // left | right | stereo

	BufferCount  int `yaml:"buffer_count,omitempty" json:"buffer_count,omitempty"`
	BufferFrames int `yaml:"buffer_frames,omitempty" json:"buffer_frames,omitempty"`
	QueueFrames  int `yaml:"queue_frames,omitempty" json:"queue_frames,omitempty"`

	TickMs          uint32 `yaml:"tick_ms,omitempty" json:"tick_ms,omitempty"`
	StatsIntervalMs uint32 `yaml:"stats_interval_ms,omitempty" json:"stats_interval_ms,omitempty"`

	Codec *CodecConfig `yaml:"codec,omitempty" json:"codec,omitempty"`
}

// CodecConfig describes an I2C-controlled codec sharing the I2S bus.
type CodecConfig struct {
	Type    string `yaml:"type" json:"type"` // "es8311"
	Bus     string `yaml:"bus" json:"bus"`   // e.g. "i2c0"
	Address uint16 `yaml:"address,omitempty" json:"address,omitempty"`
	UseMCLK bool   `yaml:"use_mclk,omitempty" json:"use_mclk,omitempty"`
	Volume  *uint8 `yaml:"volume,omitempty" json:"volume,omitempty"` // percent
}

// ---- Audio service payloads (retained) ----

// AudioState is published on "audio/<name>/state".
type AudioState struct {
	Level  string `json:"level"`           // "running", "stopped", "faulted", "error"
	Status string `json:"status"`          // short code (errcode)
	Error  string `json:"error,omitempty"` // detail
	TS     int64  `json:"ts_ms"`
}

// AudioStats is published on "audio/<name>/stats".
type AudioStats struct {
	RxOverflow       uint64 `json:"rx_overflow"`
	TxUnderrun       uint64 `json:"tx_underrun"`
	TxOverrun        uint64 `json:"tx_overrun"`
	RxOverrun        uint64 `json:"rx_overrun"`
	RxBuffers        uint64 `json:"rx_buffers"`
	TxBuffers        uint64 `json:"tx_buffers"`
	RxQueued         int    `json:"rx_queued"`
	TxQueued         int    `json:"tx_queued"`
	SampleRate       uint32 `json:"sample_rate"`
	ActualSampleRate uint32 `json:"actual_sample_rate"`
	TS               int64  `json:"ts_ms"`
}
