package sched

import (
	"slices"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

// Manual is a deterministic Scheduler driven by explicit time advances.
//
// Callbacks run synchronously inside Advance or Drain, in due-time order
// and FIFO for equal due times. Before each callback the backing fake clock
// is moved to that callback's due time, so code reading Now() from Clock()
// observes exact logical timestamps.
//
// Manual is not safe for concurrent use.
type Manual struct {
	clock   *clocktesting.FakeClock
	seq     uint64
	pending []*manualTask
}

// NewManual creates a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{clock: clocktesting.NewFakeClock(start)}
}

// Clock returns the fake clock the scheduler advances.
func (m *Manual) Clock() *clocktesting.FakeClock {
	return m.clock
}

// Now returns the current logical time.
func (m *Manual) Now() time.Time {
	return m.clock.Now()
}

// Pending returns the number of callbacks waiting to run.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// NextDue returns the due time of the earliest pending callback.
func (m *Manual) NextDue() (time.Time, bool) {
	if len(m.pending) == 0 {
		return time.Time{}, false
	}
	return m.pending[0].due, true
}

// Schedule implements Scheduler. Negative delays are treated as zero.
func (m *Manual) Schedule(d time.Duration, fn func()) Task {
	m.seq++
	t := &manualTask{
		owner: m,
		due:   m.clock.Now().Add(max(d, 0)),
		seq:   m.seq,
		fn:    fn,
	}

	i, _ := slices.BinarySearchFunc(m.pending, t, compareTasks)
	m.pending = slices.Insert(m.pending, i, t)
	return t
}

// Advance moves time forward by d, running every callback that falls due.
// Callbacks scheduled by callbacks run too if they are due by the target
// time. Returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.clock.Now().Add(max(d, 0))

	ran := 0
	for len(m.pending) > 0 && !m.pending[0].due.After(target) {
		m.runNext()
		ran++
	}
	m.clock.SetTime(target)
	return ran
}

// Drain runs pending callbacks in order until none remain or limit
// callbacks have run. The clock ends at the due time of the last callback.
func (m *Manual) Drain(limit int) int {
	ran := 0
	for len(m.pending) > 0 && ran < limit {
		m.runNext()
		ran++
	}
	return ran
}

func (m *Manual) runNext() {
	t := m.pending[0]
	m.pending = slices.Delete(m.pending, 0, 1)
	if t.due.After(m.clock.Now()) {
		m.clock.SetTime(t.due)
	}
	t.fired = true
	t.fn()
}

func (m *Manual) remove(t *manualTask) bool {
	i := slices.Index(m.pending, t)
	if i < 0 {
		return false
	}
	m.pending = slices.Delete(m.pending, i, i+1)
	return true
}

func compareTasks(a, b *manualTask) int {
	if c := a.due.Compare(b.due); c != 0 {
		return c
	}
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}

type manualTask struct {
	owner *Manual
	due   time.Time
	seq   uint64
	fn    func()
	fired bool
}

func (t *manualTask) Cancel() bool {
	if t.fired {
		return false
	}
	return t.owner.remove(t)
}
