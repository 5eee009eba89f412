// Package euclid generates Euclidean-style hit distributions.
//
// Rhythm distributes hits across steps by even interleaving: for i in
// [0, hits) slot floor(i*steps/hits) is a hit. This is the Bresenham
// distribution. It agrees with Bjorklund's algorithm for many small inputs
// but not all of them, and callers depend on the Bresenham placement.
package euclid

// MaxSteps is the largest number of steps a rhythm may have.
const MaxSteps = 64

// Clamp bounds steps to [1, MaxSteps] and hits to [0, steps].
func Clamp(hits, steps int) (int, int) {
	steps = max(1, min(steps, MaxSteps))
	hits = max(0, min(hits, steps))
	return hits, steps
}

// Rhythm returns a length-steps slice with exactly hits true slots.
// Both arguments are clamped first.
func Rhythm(hits, steps int) []bool {
	hits, steps = Clamp(hits, steps)

	slots := make([]bool, steps)
	for i := 0; i < hits; i++ {
		slots[i*steps/hits] = true
	}
	return slots
}

// Positions returns the cycle position i/steps of every hit in Rhythm.
func Positions(hits, steps int) []float32 {
	hits, steps = Clamp(hits, steps)

	out := make([]float32, 0, hits)
	for i, hit := range Rhythm(hits, steps) {
		if hit {
			out = append(out, float32(i)/float32(steps))
		}
	}
	return out
}

// String renders a rhythm as 'x' for hits and '.' for rests.
func String(slots []bool) string {
	b := make([]byte, len(slots))
	for i, hit := range slots {
		if hit {
			b[i] = 'x'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}
