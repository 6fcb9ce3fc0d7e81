package i2sduplex

import (
	"i2sduplex-go/errcode"
	"i2sduplex-go/x/mathx"
)

// Frame is one PCM sample pair. Samples are signed and right aligned to the
// configured bit depth. In mono modes the unused channel is zero.
type Frame struct {
	L, R int32
}

// Stride is the number of wire bytes per frame, 0 if the format is invalid.
func Stride(bits uint8, mode ChannelMode) int {
	if !validBits(bits) {
		return 0
	}
	return int(bits/8) * mode.Channels()
}

func checkFormat(op string, bits uint8, mode ChannelMode) error {
	if !validBits(bits) {
		return errcode.Wrap(errcode.InvalidBitDepth, op, nil)
	}
	if mode.Channels() == 0 {
		return errcode.Wrap(errcode.InvalidChannelMode, op, nil)
	}
	return nil
}

// Decode converts raw little-endian DMA bytes into frames.
func Decode(raw []byte, bits uint8, mode ChannelMode) ([]Frame, error) {
	if err := checkFormat("decode", bits, mode); err != nil {
		return nil, err
	}
	st := Stride(bits, mode)
	if len(raw)%st != 0 {
		return nil, errcode.Wrap(errcode.MisalignedBuffer, "decode", nil)
	}
	out := make([]Frame, len(raw)/st)
	_, err := DecodeInto(out, raw, bits, mode)
	return out, err
}

// DecodeInto decodes as many whole frames of raw as fit in dst and returns
// the count.
func DecodeInto(dst []Frame, raw []byte, bits uint8, mode ChannelMode) (int, error) {
	if err := checkFormat("decode", bits, mode); err != nil {
		return 0, err
	}
	st := Stride(bits, mode)
	if len(raw)%st != 0 {
		return 0, errcode.Wrap(errcode.MisalignedBuffer, "decode", nil)
	}
	n := len(raw) / st
	if n > len(dst) {
		n = len(dst)
	}
	bs := int(bits / 8)
	for i := 0; i < n; i++ {
		b := raw[i*st:]
		switch mode {
		case ChannelStereo:
			dst[i] = Frame{L: getSample(b, bs), R: getSample(b[bs:], bs)}
		case ChannelLeft:
			dst[i] = Frame{L: getSample(b, bs)}
		case ChannelRight:
			dst[i] = Frame{R: getSample(b, bs)}
		}
	}
	return n, nil
}

// Encode converts frames to wire bytes. Samples outside the bit depth's
// range are saturated. Encode of no frames is an empty, non-nil slice.
func Encode(frames []Frame, bits uint8, mode ChannelMode) ([]byte, error) {
	if err := checkFormat("encode", bits, mode); err != nil {
		return nil, err
	}
	out := make([]byte, len(frames)*Stride(bits, mode))
	_, err := EncodeInto(out, frames, bits, mode)
	return out, err
}

// EncodeInto encodes as many frames as fit in dst and returns the number of
// bytes written.
func EncodeInto(dst []byte, frames []Frame, bits uint8, mode ChannelMode) (int, error) {
	if err := checkFormat("encode", bits, mode); err != nil {
		return 0, err
	}
	st := Stride(bits, mode)
	n := len(dst) / st
	if n > len(frames) {
		n = len(frames)
	}
	bs := int(bits / 8)
	for i := 0; i < n; i++ {
		b := dst[i*st:]
		f := frames[i]
		switch mode {
		case ChannelStereo:
			putSample(b, f.L, bits)
			putSample(b[bs:], f.R, bits)
		case ChannelLeft:
			putSample(b, f.L, bits)
		case ChannelRight:
			putSample(b, f.R, bits)
		}
	}
	return n * st, nil
}

// SelectChannel keeps only the channel mode carries and zeroes the other.
// Stereo frames are returned unchanged. The input is modified in place.
func SelectChannel(frames []Frame, mode ChannelMode) []Frame {
	switch mode {
	case ChannelLeft:
		for i := range frames {
			frames[i].R = 0
		}
	case ChannelRight:
		for i := range frames {
			frames[i].L = 0
		}
	}
	return frames
}

func getSample(b []byte, size int) int32 {
	switch size {
	case 2:
		return int32(int16(uint16(b[0]) | uint16(b[1])<<8))
	case 3:
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		return int32(v<<8) >> 8
	default:
		return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
	}
}

func putSample(b []byte, s int32, bits uint8) {
	v := uint32(mathx.Saturate(int64(s), uint(bits)))
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	if bits >= 24 {
		b[2] = byte(v >> 16)
	}
	if bits == 32 {
		b[3] = byte(v >> 24)
	}
}
