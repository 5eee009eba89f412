// Package sched provides cancellable one-shot scheduling on a logical clock.
//
// The engine never sleeps. It asks a Scheduler to call it back after a
// delay and keeps the returned Task so a restarted playback can cancel the
// stale callback before issuing a new one.
//
// Two implementations exist:
//   - TimerScheduler runs on a k8s.io/utils clock.Clock (real or fake) and
//     posts due callbacks into the owner's event loop.
//   - Manual keeps pending callbacks in a list and fires them only when the
//     caller advances time. Tests and the scenario harness use it.
package sched

import (
	"math"
	"time"
)

// MinDelay is the smallest delay a caller should request. A zero delay
// would re-enter the caller from inside its own handler.
const MinDelay = 100 * time.Microsecond

// Task is a pending callback.
type Task interface {
	// Cancel prevents the callback from running. It returns true if the
	// callback had not run yet. Cancel is idempotent.
	Cancel() bool
}

// Scheduler requests a callback after a delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// maxMillis is the longest delay a Duration can hold, in milliseconds.
const maxMillis = float64(math.MaxInt64) / float64(time.Millisecond)

// Millis converts a fractional millisecond delay to a Duration, floored at
// MinDelay and saturated at the largest Duration. NaN floors.
func Millis(ms float64) time.Duration {
	if ms != ms {
		return MinDelay
	}
	if ms >= maxMillis {
		return time.Duration(math.MaxInt64)
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if d < MinDelay {
		return MinDelay
	}
	return d
}

// ToMillis converts a Duration to fractional milliseconds.
func ToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
