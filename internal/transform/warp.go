package transform

import (
	"math"
	"slices"
	"strings"

	"github.com/fogleman/ease"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/pattern"
)

// curves are the easing functions warp accepts, keyed by lower-case name.
var curves = map[string]ease.Function{
	"linear":     ease.Linear,
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"inoutcubic": ease.InOutCubic,
	"inquart":    ease.InQuart,
	"outquart":   ease.OutQuart,
	"inoutquart": ease.InOutQuart,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
}

// lastPosition is the largest float32 below 1.
var lastPosition = math.Nextafter32(1, 0)

// Curves returns the names warp accepts, sorted.
func Curves() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// warp remaps every position through an easing curve. "inquad" pulls
// events toward the start of the cycle, "outquad" pushes them toward the
// end. Unknown curve names leave the pattern unchanged.
func warp(p *pattern.Store, args atom.List, env Env) {
	n := p.Len()
	if n == 0 {
		return
	}

	name := strings.ToLower(args.SymbolArg(0))
	curve, ok := curves[name]
	if !ok {
		env.logger().Warn("unknown warp curve",
			"curve", args.String(),
			"known", strings.Join(Curves(), ","),
		)
		return
	}

	for i := range n {
		v := float32(curve(float64(p.At(i))))
		if v >= 1 {
			v = lastPosition
		}
		p.Set(i, v)
	}
	p.Sort()
}
