// Package boards describes the SoCs the audio stack runs on.
package boards

import "strings"

// Board describes what the SoC can do (controllers present, GPIO range, I2S
// clocking). It must not include operating parameters (sample rates).
type Board struct {
	Name             string
	GPIOMin, GPIOMax int

	// I2S divider input and fractional divider resolution.
	I2SBaseHz   uint32
	I2SFracBits uint8
	// Upper bound on DMA-capable memory for audio (0 = unlimited).
	MaxDMABytes int

	// Controllers present (identities only; e.g. "i2c0", "i2s0").
	I2C []string
	I2S []string

	// Optional recommended default wiring for setups and tools. Plain GPIO
	// numbers; -1 means not wired.
	Defaults struct {
		I2S_LRCLK, I2S_BCLK, I2S_MCLK int
		I2S_DIN, I2S_DOUT             int
		I2C0_SDA, I2C0_SCL            int
	}
}

// ESP32 has GPIO 0..39 and a 160 MHz I2S source with a fractional divider.
var ESP32 = func() Board {
	b := Board{
		Name: "esp32", GPIOMin: 0, GPIOMax: 39,
		I2SBaseHz: 160_000_000, I2SFracBits: 6,
		MaxDMABytes: 64 * 1024,
		I2C:         []string{"i2c0", "i2c1"},
		I2S:         []string{"i2s0", "i2s1"},
	}
	b.Defaults.I2S_LRCLK, b.Defaults.I2S_BCLK, b.Defaults.I2S_MCLK = 25, 26, 0
	b.Defaults.I2S_DIN, b.Defaults.I2S_DOUT = 35, 22
	b.Defaults.I2C0_SDA, b.Defaults.I2C0_SCL = 18, 23
	return b
}()

// ESP32S3 extends the GPIO range to 48.
var ESP32S3 = func() Board {
	b := Board{
		Name: "esp32s3", GPIOMin: 0, GPIOMax: 48,
		I2SBaseHz: 160_000_000, I2SFracBits: 8,
		MaxDMABytes: 128 * 1024,
		I2C:         []string{"i2c0", "i2c1"},
		I2S:         []string{"i2s0", "i2s1"},
	}
	b.Defaults.I2S_LRCLK, b.Defaults.I2S_BCLK, b.Defaults.I2S_MCLK = 45, 17, 2
	b.Defaults.I2S_DIN, b.Defaults.I2S_DOUT = 16, 15
	b.Defaults.I2C0_SDA, b.Defaults.I2C0_SCL = 18, 8
	return b
}()

// Pico drives I2S from PIO at the 125 MHz system clock (16.8 divider).
var Pico = func() Board {
	b := Board{
		Name: "pico", GPIOMin: 0, GPIOMax: 28,
		I2SBaseHz: 125_000_000, I2SFracBits: 8,
		MaxDMABytes: 32 * 1024,
		I2C:         []string{"i2c0", "i2c1"},
		I2S:         []string{"pio0"},
	}
	b.Defaults.I2S_LRCLK, b.Defaults.I2S_BCLK, b.Defaults.I2S_MCLK = 19, 18, -1
	b.Defaults.I2S_DIN, b.Defaults.I2S_DOUT = 20, 21
	b.Defaults.I2C0_SDA, b.Defaults.I2C0_SCL = 4, 5
	return b
}()

// Default is the reference platform.
var Default = ESP32

var all = []Board{ESP32, ESP32S3, Pico}

// ByName looks a board up case-insensitively; "" returns Default.
func ByName(name string) (Board, bool) {
	if name == "" {
		return Default, true
	}
	for _, b := range all {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return Board{}, false
}

// Names lists the known boards.
func Names() []string {
	out := make([]string, len(all))
	for i, b := range all {
		out[i] = b.Name
	}
	return out
}
