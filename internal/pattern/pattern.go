// Package pattern implements the bounded event buffer that holds a rhythmic
// pattern as fractional cycle positions.
//
// A Store is the single owner of its backing buffer. Transforms read and
// rewrite it only through the methods below, so every write site clamps the
// value into [0,1) and growth never exceeds MaxEvents.
//
// INVARIANTS:
//   - 0 <= Len() <= Cap() <= MaxEvents
//   - every stored value v satisfies 0 <= v < 1
//
// Writes beyond MaxEvents are silently dropped. The buffer is real-time
// bounded storage, so overflow is a truncation, not an error.
package pattern

import (
	"cmp"
	"math"
	"slices"
)

// MaxEvents is the hard upper bound on the number of events in a pattern.
const MaxEvents = 256

// initialCapacity is the backing capacity allocated by New.
const initialCapacity = 32

// Store is a growable, bounded, ordered sequence of positions.
//
// Store is not safe for concurrent use. The engine that owns it serialises
// all access.
type Store struct {
	events []float32
}

// New creates an empty store with the initial backing capacity.
func New() *Store {
	return &Store{events: make([]float32, 0, initialCapacity)}
}

// Len returns the number of events currently stored.
func (s *Store) Len() int {
	return len(s.events)
}

// Cap returns the allocated backing capacity.
func (s *Store) Cap() int {
	return cap(s.events)
}

// At returns the position at index i, or 0 when i is out of range.
func (s *Store) At(i int) float32 {
	if i < 0 || i >= len(s.events) {
		return 0
	}
	return s.events[i]
}

// Set overwrites the position at index i. Out-of-range indices are ignored.
func (s *Store) Set(i int, v float32) {
	if i < 0 || i >= len(s.events) {
		return
	}
	s.events[i] = Wrap(v)
}

// Append adds a position at the tail.
// Returns false when the store is full and the value was dropped.
func (s *Store) Append(v float32) bool {
	if len(s.events) >= MaxEvents {
		return false
	}
	s.ensureCapacity(len(s.events) + 1)
	s.events = append(s.events, Wrap(v))
	return true
}

// Resize changes the logical length to n, clamped to [0, MaxEvents].
// Newly exposed slots are zero-filled.
func (s *Store) Resize(n int) {
	n = max(0, min(n, MaxEvents))
	s.ensureCapacity(n)
	old := len(s.events)
	s.events = s.events[:n]
	if n > old {
		clear(s.events[old:])
	}
}

// Clear empties the store. Capacity is retained.
func (s *Store) Clear() {
	s.events = s.events[:0]
}

// Sort orders the events ascending. Equal keys keep their relative order.
func (s *Store) Sort() {
	slices.SortStableFunc(s.events, cmp.Compare[float32])
}

// Replace overwrites the whole store with values, truncated to MaxEvents.
func (s *Store) Replace(values []float32) {
	n := min(len(values), MaxEvents)
	s.ensureCapacity(n)
	s.events = s.events[:n]
	for i, v := range values[:n] {
		s.events[i] = Wrap(v)
	}
}

// Snapshot returns a copy of the current events. Transforms that need the
// pre-mutation state read from a snapshot, never from the live buffer.
func (s *Store) Snapshot() []float32 {
	return slices.Clone(s.events)
}

// ensureCapacity grows the backing buffer by doubling until it can hold
// needed events, capped at MaxEvents.
func (s *Store) ensureCapacity(needed int) {
	c := cap(s.events)
	if needed <= c {
		return
	}
	if c < initialCapacity {
		c = initialCapacity
	}
	for c < needed {
		c *= 2
	}
	c = min(c, MaxEvents)

	grown := make([]float32, len(s.events), c)
	copy(grown, s.events)
	s.events = grown
}

// Wrap normalises v into [0,1). Negative values and NaN become 0; values at
// or above 1 keep only their fractional part, so exactly 1.0 maps to 0.
func Wrap(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v < 1 {
		return v
	}
	f := v - float32(math.Floor(float64(v)))
	if f >= 1 || f < 0 {
		return 0
	}
	return f
}

// WrapSigned folds v into [0,1) by whole-cycle steps, so small negative
// offsets land near the end of the cycle instead of at 0.
func WrapSigned(v float32) float32 {
	if v != v || math.IsInf(float64(v), 0) {
		return 0
	}
	f := float64(v) - math.Floor(float64(v))
	r := float32(f)
	if r >= 1 || r < 0 {
		return 0
	}
	return r
}
