// Package neighbor enumerates interacting particle pairs.
//
// Both enumerators visit every unordered pair closer than ctx.MaxCut
// exactly once, in a deterministic order, and report the minimum-image
// separation d = r1 − r2. Determinism matters: the stochastic DPD force
// draws random numbers in pair order, so a fixed seed only reproduces a
// run if the order is fixed too.
package neighbor

import (
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

type PairFunc func(p1, p2 *particle.Particle, d dynamo.Vec3, dist2 float64)

type Enumerator interface {
	// Rebuild refreshes any cached spatial structure for the current
	// positions.
	Rebuild(ctx *dynamo.Context, ps particle.Set)
	ForEachPair(ctx *dynamo.Context, ps particle.Set, fn PairFunc)
}

// AllPairs checks every pair. It needs no rebuild and is the reference
// the cell list is tested against.
type AllPairs struct{}

func NewAllPairs() *AllPairs { return &AllPairs{} }

func (*AllPairs) Rebuild(*dynamo.Context, particle.Set) {}

func (*AllPairs) ForEachPair(ctx *dynamo.Context, ps particle.Set, fn PairFunc) {
	if ctx.MaxCut <= 0 {
		return
	}
	cut2 := ctx.MaxCut * ctx.MaxCut
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			d := ctx.MinimumImage(ps[i].Pos.Sub(ps[j].Pos))
			if r2 := d.Norm2(); r2 < cut2 {
				fn(&ps[i], &ps[j], d, r2)
			}
		}
	}
}
