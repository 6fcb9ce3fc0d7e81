// Package ramp steps a register value towards a target over time.
package ramp

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear drives set from 'from' to 'to' in steps equal increments spread over
// total. It is synchronous: run it from a goroutine and let tick handle timing
// and cancellation. The final value is always 'to' unless cancelled.
// steps<=1 or total==0 snaps to 'to'.
func Linear[T constraints.Unsigned](from, to T, total time.Duration, steps int, tick Tick, set func(T)) {
	if steps <= 1 || total <= 0 {
		set(to)
		return
	}
	stepDur := total / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = time.Millisecond
	}
	d := int64(to) - int64(from)
	for i := 1; i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		set(T(int64(from) + d*int64(i)/int64(steps)))
	}
	if !tick(stepDur) {
		return
	}
	set(to)
}
