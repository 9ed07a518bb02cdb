package particle

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

// Gaussian draws from a standard normal distribution.
type Gaussian interface {
	NormFloat64() float64
}

// Lattice places n particles on a simple cubic lattice filling box, with
// types assigned round-robin over numTypes. Velocities are drawn from a
// Maxwell-Boltzmann distribution at temperature and shifted so the total
// momentum is zero.
//
// Particles start exactly LatticeSpacing apart. A pair cutoff equal to or
// below that spacing leaves no pair in range until particles move, so a cold
// start (temperature 0) with such a cutoff never feels a pair force.
func Lattice(n, numTypes int, mass, temperature float64, box dynamo.Vec3, rng Gaussian) Set {
	s := make(Set, n)
	if n == 0 {
		return s
	}
	if numTypes < 1 {
		numTypes = 1
	}

	perSide := latticeSide(n)
	spacing := LatticeSpacing(n, box)

	sigma := 0.0
	if temperature > 0 && mass > 0 {
		sigma = math.Sqrt(temperature / mass)
	}

	for i := 0; i < n; i++ {
		ix := i % perSide
		iy := (i / perSide) % perSide
		iz := i / (perSide * perSide)

		p := &s[i]
		p.ID = i
		p.Type = i % numTypes
		p.Mass = mass
		p.Pos = dynamo.Vec3{
			(float64(ix) + 0.5) * spacing[0],
			(float64(iy) + 0.5) * spacing[1],
			(float64(iz) + 0.5) * spacing[2],
		}
		if rng != nil && sigma > 0 {
			p.Vel = dynamo.Vec3{
				sigma * rng.NormFloat64(),
				sigma * rng.NormFloat64(),
				sigma * rng.NormFloat64(),
			}
		}
		p.OldPos = p.Pos
	}

	if mass > 0 {
		drift := s.Momentum().Scale(1 / (mass * float64(n)))
		for i := range s {
			s[i].Vel = s[i].Vel.Sub(drift)
		}
	}

	return s
}

func latticeSide(n int) int {
	return int(math.Ceil(math.Cbrt(float64(n))))
}

// LatticeSpacing returns the per-axis distance between neighboring lattice
// sites when n particles fill box.
func LatticeSpacing(n int, box dynamo.Vec3) dynamo.Vec3 {
	if n <= 0 {
		return box
	}
	side := float64(latticeSide(n))
	return dynamo.Vec3{box[0] / side, box[1] / side, box[2] / side}
}
