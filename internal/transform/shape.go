package transform

import (
	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/pattern"
)

// palindrome compresses the pattern into the first half of the cycle and
// mirrors it into the second half in reverse index order.
func palindrome(p *pattern.Store, _ atom.List, _ Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	orig := p.Snapshot()
	size := 2 * n
	out := make([]float32, size)
	for i, v := range orig {
		out[i] = v * 0.5
		out[size-1-i] = 0.5 + v*0.5
	}

	p.Replace(out)
	p.Sort()
}

// rotate shifts every position by offset grid steps.
func rotate(p *pattern.Store, args atom.List, env Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	grid := max(env.Grid, 1)
	shift := float32(args.IntArg(0)) / float32(grid)
	for i := range n {
		p.Set(i, pattern.WrapSigned(p.At(i)+shift))
	}
	p.Sort()
}

// reverse maps p to 1-p, keeping 0 at 0.
func reverse(p *pattern.Store, _ atom.List, _ Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	for i := range n {
		v := 1 - p.At(i)
		if v < 0 || v >= 1 {
			v = 0
		}
		p.Set(i, v)
	}
	p.Sort()
}

// fast tiles the pattern factor times, each copy squeezed into its own
// 1/factor band. The result is truncated to MaxEvents.
func fast(p *pattern.Store, args atom.List, _ Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	f := factor(args, 0)
	orig := p.Snapshot()
	size := min(n*f, pattern.MaxEvents)
	sub := 1 / float32(f)

	out := make([]float32, 0, size)
	for rep := 0; rep < f && len(out) < size; rep++ {
		base := sub * float32(rep)
		for _, v := range orig {
			if len(out) == size {
				break
			}
			val := base + v*sub
			if val >= 1 {
				val -= 1
			}
			out = append(out, val)
		}
	}

	p.Replace(out)
	p.Sort()
}

// slow scales every position into the first 1/factor of the cycle.
func slow(p *pattern.Store, args atom.List, _ Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	scale := 1 / float32(factor(args, 0))
	for i := range n {
		p.Set(i, p.At(i)*scale)
	}
	p.Sort()
}
