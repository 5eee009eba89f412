package engine

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Outlet receives everything the engine emits.
//
// Calls are made from the goroutine that drives the engine, in emission
// order. During playback each tick emits Position then Bang. Count reports
// the pattern length after a tap, a clear, or the end of a cycle.
type Outlet interface {
	Position(pos float32)
	Bang()
	Count(n int)
	Status(recording bool)
}

// NopOutlet discards all output.
type NopOutlet struct{}

func (NopOutlet) Position(float32) {}
func (NopOutlet) Bang()            {}
func (NopOutlet) Count(int)        {}
func (NopOutlet) Status(bool)      {}

// Tee fans every emission out to each outlet in order.
type Tee []Outlet

func (t Tee) Position(pos float32) {
	for _, o := range t {
		o.Position(pos)
	}
}

func (t Tee) Bang() {
	for _, o := range t {
		o.Bang()
	}
}

func (t Tee) Count(n int) {
	for _, o := range t {
		o.Count(n)
	}
}

func (t Tee) Status(recording bool) {
	for _, o := range t {
		o.Status(recording)
	}
}

// OutletKind names an outlet.
type OutletKind string

const (
	KindPosition OutletKind = "position"
	KindBang     OutletKind = "bang"
	KindCount    OutletKind = "count"
	KindStatus   OutletKind = "status"
)

// OutletEvent is one recorded emission.
type OutletEvent struct {
	Seq   int64
	At    time.Time
	Kind  OutletKind
	Value float64
}

// FormatValue renders the value the way the trace and journal print it:
// positions with six decimals, counts and status as integers, nothing for
// bangs.
func (ev OutletEvent) FormatValue() string {
	switch ev.Kind {
	case KindPosition:
		return fmt.Sprintf("%.6f", ev.Value)
	case KindCount, KindStatus:
		return fmt.Sprintf("%d", int64(ev.Value))
	default:
		return ""
	}
}

// Recorder is an Outlet that keeps every emission in memory, stamped with
// a sequence number and the clock's time. Safe for concurrent use, so tests
// can read it while a Runner is emitting.
type Recorder struct {
	mu     sync.Mutex
	clock  clock.PassiveClock
	seq    int64
	events []OutletEvent
}

// NewRecorder creates a recorder. A nil clock leaves timestamps zero.
func NewRecorder(clk clock.PassiveClock) *Recorder {
	return &Recorder{clock: clk}
}

func (r *Recorder) Position(pos float32) { r.add(KindPosition, float64(pos)) }
func (r *Recorder) Bang()                { r.add(KindBang, 0) }
func (r *Recorder) Count(n int)          { r.add(KindCount, float64(n)) }

func (r *Recorder) Status(recording bool) {
	v := 0.0
	if recording {
		v = 1
	}
	r.add(KindStatus, v)
}

func (r *Recorder) add(kind OutletKind, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	ev := OutletEvent{Seq: r.seq, Kind: kind, Value: value}
	if r.clock != nil {
		ev.At = r.clock.Now()
	}
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []OutletEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutletEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded emissions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Positions returns only the recorded positions.
func (r *Recorder) Positions() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []float32
	for _, ev := range r.events {
		if ev.Kind == KindPosition {
			out = append(out, float32(ev.Value))
		}
	}
	return out
}

// LastCount returns the most recent Count emission.
func (r *Recorder) LastCount() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == KindCount {
			return int(r.events[i].Value), true
		}
	}
	return 0, false
}

// Reset discards recorded events. Sequence numbers keep increasing.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
