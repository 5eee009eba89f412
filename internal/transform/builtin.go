package transform

import (
	"math/rand/v2"

	"github.com/roach88/telomere/internal/atom"
)

// RegisterBuiltins installs the built-in transforms into r.
//
// Registration order is fixed so Entries enumerates them deterministically,
// newest first: warp, degrade, skip, jitter, euclid, slow, fast, reverse,
// rotate, palindrome.
func RegisterBuiltins(r *Registry) {
	r.Register("palindrome", HandlerFunc(palindrome), 0, 0,
		"Append reversed pattern to create palindromic loop")
	r.Register("rotate", HandlerFunc(rotate), 1, 1,
		"Cyclically shift pattern start point by N grid steps")
	r.Register("reverse", HandlerFunc(reverse), 0, 0,
		"Reverse the temporal order of the pattern")
	r.Register("fast", HandlerFunc(fast), 1, 1,
		"Compress pattern to repeat N times per cycle")
	r.Register("slow", HandlerFunc(slow), 1, 1,
		"Stretch pattern into the first 1/N of the cycle")
	r.Register("euclid", HandlerFunc(euclidean), 2, 2,
		"Replace pattern with Euclidean rhythm (hits steps)")
	r.Register("jitter", HandlerFunc(jitter), 1, 1,
		"Apply random displacement to event positions")
	r.Register("skip", HandlerFunc(skip), 1, 1,
		"Probabilistically remove events from the pattern")
	r.Register("degrade", HandlerFunc(degrade), 1, 1,
		"Probabilistically remove events (keeps at least one)")
	r.Register("warp", HandlerFunc(warp), 1, 1,
		"Map positions through an easing curve (linear, inquad, outsine, ...)")
}

// NewDefaultRegistry returns a registry holding only the built-ins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(nil)
	RegisterBuiltins(r)
	return r
}

// unit reads argument i clamped to [0,1]. NaN reads as 0.
func unit(args atom.List, i int) float32 {
	f := args.FloatArg(i)
	if f != f {
		return 0
	}
	return min(max(f, 0), 1)
}

// factor reads argument i as an integer factor of at least 2.
func factor(args atom.List, i int) int {
	return max(args.IntArg(i), 2)
}

// draw returns a uniform value in [0,1) from the env source, falling
// back to the process source when none was injected.
func (e Env) draw() float32 {
	if e.Rand == nil {
		return rand.Float32()
	}
	return e.Rand.Float32()
}
