package ramp

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLinearSteps(t *testing.T) {
	var got []uint8
	var waited time.Duration
	Linear[uint8](0, 0xBF, 40*time.Millisecond, 4,
		func(d time.Duration) bool { waited += d; return true },
		func(v uint8) { got = append(got, v) })
	if d := cmp.Diff([]uint8{47, 95, 143, 0xBF}, got); d != "" {
		t.Fatalf("levels (-want +got):\n%s", d)
	}
	if waited != 40*time.Millisecond {
		t.Fatalf("waited %v", waited)
	}
}

func TestLinearDown(t *testing.T) {
	var got []uint8
	Linear[uint8](200, 100, time.Second, 2, func(time.Duration) bool { return true },
		func(v uint8) { got = append(got, v) })
	if d := cmp.Diff([]uint8{150, 100}, got); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}
}

func TestLinearSnapAndCancel(t *testing.T) {
	var last uint16
	Linear[uint16](0, 500, 0, 10, nil, func(v uint16) { last = v })
	if last != 500 {
		t.Fatalf("snap = %d", last)
	}
	calls := 0
	Linear[uint16](0, 500, time.Second, 10,
		func(time.Duration) bool { return false },
		func(uint16) { calls++ })
	if calls != 0 {
		t.Fatalf("cancelled ramp set %d times", calls)
	}
}
