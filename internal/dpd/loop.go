package dpd

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/particle"
)

// AddForces evaluates the stochastic DPD force of every enumerated pair
// and accumulates it into the particle forces, equal and opposite. Pairs
// without coefficients do not interact.
func AddForces(ctx *dynamo.Context, rng dynamo.Random, table *Table, pairs neighbor.Enumerator, ps particle.Set) {
	pairs.ForEachPair(ctx, ps, func(p1, p2 *particle.Particle, d dynamo.Vec3, dist2 float64) {
		c := table.Lookup(p1.Type, p2.Type)
		if c == nil {
			return
		}
		f := PairForce(ctx, rng, p1, p2, c, d, math.Sqrt(dist2), dist2, true)
		p1.Force = p1.Force.Add(f)
		p2.Force = p2.Force.Sub(f)
	})
}
