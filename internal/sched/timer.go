package sched

import (
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// PostFunc hands a callback to the goroutine that owns the engine.
// It returns false when the owner has stopped accepting work.
type PostFunc func(fn func()) bool

// TimerScheduler schedules callbacks on a clock.Clock.
//
// Each task waits on its own clock timer in a goroutine. When the timer
// fires, the callback is not run there: it is posted through post so it
// executes on the owner's single-writer loop. A task cancelled after it was
// posted but before the loop ran it is dropped at execution time.
type TimerScheduler struct {
	clock clock.Clock
	post  PostFunc
}

// NewTimerScheduler creates a scheduler on clk. If post is nil, callbacks
// run directly on the timer goroutine and the caller is responsible for
// serialising them.
func NewTimerScheduler(clk clock.Clock, post PostFunc) *TimerScheduler {
	if post == nil {
		post = func(fn func()) bool {
			fn()
			return true
		}
	}
	return &TimerScheduler{clock: clk, post: post}
}

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(d time.Duration, fn func()) Task {
	t := &timerTask{
		timer: s.clock.NewTimer(d),
		done:  make(chan struct{}),
	}

	go func() {
		select {
		case <-t.timer.C():
			s.post(func() {
				if t.cancelled.Load() {
					return
				}
				t.fired.Store(true)
				fn()
			})
		case <-t.done:
		}
	}()

	return t
}

type timerTask struct {
	timer     clock.Timer
	done      chan struct{}
	cancelled atomic.Bool
	fired     atomic.Bool
}

func (t *timerTask) Cancel() bool {
	if t.cancelled.Swap(true) {
		return false
	}
	t.timer.Stop()
	close(t.done)
	return !t.fired.Load()
}
