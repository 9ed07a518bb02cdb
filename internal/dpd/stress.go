package dpd

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Stress returns the deterministic DPD virial Σ d⊗f over all interacting
// pairs divided by the box volume. Noise is excluded so the random stream
// of the production force loop is left untouched, and particle forces are
// not modified.
func Stress(ctx *dynamo.Context, table *Table, pairs neighbor.Enumerator, ps particle.Set) dynamo.Tensor {
	var s dynamo.Tensor
	if ctx.MaxCut <= 0 {
		return s
	}

	pairs.ForEachPair(ctx, ps, func(p1, p2 *particle.Particle, d dynamo.Vec3, dist2 float64) {
		c := table.Lookup(p1.Type, p2.Type)
		if c == nil {
			return
		}
		f := PairForce(ctx, nil, p1, p2, c, d, math.Sqrt(dist2), dist2, false)
		s.AddOuter(d, f)
	})

	if v := ctx.Volume(); v > 0 {
		s = s.Scale(1 / v)
	}
	return s
}
