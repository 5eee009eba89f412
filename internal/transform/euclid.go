package transform

import (
	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/euclid"
	"github.com/roach88/telomere/internal/pattern"
)

// euclidean replaces the pattern with the hit positions of a Euclidean
// rhythm. Unlike the other transforms it runs on an empty pattern too,
// since it does not read the previous contents.
func euclidean(p *pattern.Store, args atom.List, _ Env) {
	p.Replace(euclid.Positions(args.IntArg(0), args.IntArg(1)))
	p.Sort()
}
