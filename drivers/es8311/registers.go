package es8311

// I2C address with CE low.
const Address = 0x18

// Register map (subset used by this driver).
const (
	regReset    = 0x00
	regClkMgr1  = 0x01 // clock enables, bit7 selects BCLK as MCLK source
	regClkMgr2  = 0x02 // pre-divider / pre-multiplier
	regClkMgr3  = 0x03 // ADC oversampling
	regClkMgr4  = 0x04 // DAC oversampling
	regClkMgr5  = 0x05 // ADC/DAC clock dividers
	regClkMgr6  = 0x06 // BCLK divider
	regClkMgr7  = 0x07 // LRCK divider high
	regClkMgr8  = 0x08 // LRCK divider low
	regSDPIn    = 0x09 // DAC serial port
	regSDPOut   = 0x0A // ADC serial port
	regSystem0D = 0x0D // analog power
	regSystem0E = 0x0E // PGA / ADC modulator power
	regSystem12 = 0x12 // DAC power
	regSystem13 = 0x13 // output HP drive
	regSystem14 = 0x14 // mic input select / PGA gain
	regADCVol   = 0x17
	regADCEQ    = 0x1C
	regDACMute  = 0x31
	regDACVol   = 0x32
	regGPIO37   = 0x37 // DAC ramp rate / EQ bypass
	regChipID1  = 0xFD
	regChipID2  = 0xFE
)

const (
	chipID1 = 0x83
	chipID2 = 0x11

	resetAll   = 0x1F
	resetClear = 0x00
	powerOn    = 0x80 // CSM on, slave mode

	clkEnableAll = 0x3F
	clkFromBCLK  = 0x80

	dacMuteBits = 0x60

	// VolumeUnity is 0 dB on both ADC and DAC volume (0.5 dB steps).
	VolumeUnity = 0xBF
)

// wordLen encodes bits per sample in SDP bits [4:2].
func wordLen(bits uint8) (byte, bool) {
	switch bits {
	case 24:
		return 0, true
	case 20:
		return 1, true
	case 18:
		return 2, true
	case 16:
		return 3, true
	case 32:
		return 4, true
	}
	return 0, false
}
