package dpd

import (
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// PairForce returns the DPD force acting on p1 due to p2. d is the
// minimum-image separation r1 − r2, dist its length and dist2 its square.
// The force on p2 is the negative; accumulation is left to the caller.
//
// With includeNoise false the result is deterministic and rng is never
// called, so a nil source is allowed.
func PairForce(ctx *dynamo.Context, rng dynamo.Random, p1, p2 *particle.Particle, c *Coefficients, d dynamo.Vec3, dist, dist2 float64, includeNoise bool) dynamo.Vec3 {
	if !(dist > 0) {
		panic("dpd: degenerate pair separation")
	}

	var f dynamo.Vec3
	distInv := 1.0 / dist
	v12 := p1.Vel.Sub(p2.Vel)

	if dist < c.Cutoff && c.FrictionLong > 0 {
		omega := weight(c.Weight, c.Cutoff, distInv)
		omega2 := omega * omega

		friction := c.FrictionLong * omega2 * v12.Dot(d) * ctx.TimeStep

		noise := 0.0
		if includeNoise && c.NoiseLong > 0 {
			noise = c.NoiseLong * omega * (rng.Uniform() - 0.5)
		}

		f = f.Add(d.Scale(noise - friction))
	}

	if dist < c.TransCutoff && c.FrictionTrans > 0 {
		omega := weight(c.TransWeight, c.TransCutoff, distInv)
		omega2 := omega * omega

		// P = dist²·I − d⊗d projects onto the plane normal to d, scaled by dist².
		var proj [3][3]float64
		var xi dynamo.Vec3
		for i := 0; i < 3; i++ {
			if includeNoise && c.NoiseTrans > 0 {
				xi[i] = rng.Uniform() - 0.5
			}
			for j := 0; j < 3; j++ {
				proj[i][j] = -d[i] * d[j]
			}
			proj[i][i] += dist2
		}

		var damping, random dynamo.Vec3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				damping[i] += proj[i][j] * v12[j]
				random[i] += proj[i][j] * xi[j]
			}
		}
		damping = damping.Scale(c.FrictionTrans * omega2 * ctx.TimeStep)
		random = random.Scale(c.NoiseTrans * omega * distInv)

		f = f.Add(random.Sub(damping))
	}

	return f
}
