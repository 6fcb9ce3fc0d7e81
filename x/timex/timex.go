package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// FramesDuration is the playback time of frames samples at rateHz.
func FramesDuration(frames int, rateHz uint32) time.Duration {
	if rateHz == 0 || frames <= 0 {
		return 0
	}
	return time.Duration(uint64(frames) * 1_000_000_000 / uint64(rateHz))
}

// FramesIn is the whole number of frames that fit in d at rateHz.
func FramesIn(d time.Duration, rateHz uint32) int {
	if d <= 0 {
		return 0
	}
	return int(uint64(d) * uint64(rateHz) / 1_000_000_000)
}
