package transform

import (
	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/pattern"
)

// jitter displaces every position by a uniform amount in [-a, +a]. The
// change is permanent, unlike the engine's playback jitter.
func jitter(p *pattern.Store, args atom.List, env Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	amount := unit(args, 0)
	for i := range n {
		r := env.draw()*2 - 1
		p.Set(i, pattern.WrapSigned(p.At(i)+r*amount))
	}
	p.Sort()
}

// skip drops each event independently with probability prob.
func skip(p *pattern.Store, args atom.List, env Env) {
	if p.Len() == 0 {
		return
	}

	p.Replace(survivors(p.Snapshot(), unit(args, 0), env))
	p.Sort()
}

// degrade is skip that never empties the pattern: if every event would be
// dropped, the event at index 0 survives.
func degrade(p *pattern.Store, args atom.List, env Env) {
	if p.Len() == 0 {
		return
	}

	orig := p.Snapshot()
	kept := survivors(orig, unit(args, 0), env)
	if len(kept) == 0 {
		kept = orig[:1]
	}

	p.Replace(kept)
	p.Sort()
}

// survivors keeps each value whose draw r satisfies r >= prob, so prob 0
// keeps everything and prob 1 drops everything.
func survivors(values []float32, prob float32, env Env) []float32 {
	kept := make([]float32, 0, len(values))
	for _, v := range values {
		if env.draw() >= prob {
			kept = append(kept, v)
		}
	}
	return kept
}
