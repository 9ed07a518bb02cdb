package particle

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

// Set is the full local particle collection. Elements are addressed by
// index so pair callbacks can hold pointers into the backing array.
type Set []Particle

func (s Set) Clone() Set {
	c := make(Set, len(s))
	copy(c, s)
	return c
}

func (s Set) ZeroForces() {
	for i := range s {
		s[i].Force = dynamo.Vec3{}
	}
}

// MarkRebuilt records the current positions as the reference for the
// displacement criterion.
func (s Set) MarkRebuilt() {
	for i := range s {
		s[i].OldPos = s[i].Pos
	}
}

// Fold wraps positions back into the primary box. OldPos moves with the
// particle so displacements stay continuous.
func (s Set) Fold(box dynamo.Vec3) {
	for i := range s {
		for j := 0; j < 3; j++ {
			l := box[j]
			if l <= 0 {
				continue
			}
			shift := l * math.Floor(s[i].Pos[j]/l)
			s[i].Pos[j] -= shift
			s[i].OldPos[j] -= shift
		}
	}
}

func (s Set) KineticEnergy() float64 {
	e := 0.0
	for i := range s {
		if s[i].Virtual {
			continue
		}
		e += 0.5 * s[i].Mass * s[i].Vel.Norm2()
	}
	return e
}

func (s Set) Momentum() dynamo.Vec3 {
	var p dynamo.Vec3
	for i := range s {
		if s[i].Virtual {
			continue
		}
		p = p.Add(s[i].Vel.Scale(s[i].Mass))
	}
	return p
}

// DegreesOfFreedom counts unfixed translational axes of non-virtual particles.
func (s Set) DegreesOfFreedom() int {
	n := 0
	for i := range s {
		if s[i].Virtual {
			continue
		}
		for j := 0; j < 3; j++ {
			if !s[i].Fixed.FixedOn(j) {
				n++
			}
		}
	}
	return n
}

// KineticTemperature is 2·E_kin / N_dof in units where k_B = 1.
func (s Set) KineticTemperature() float64 {
	dof := s.DegreesOfFreedom()
	if dof == 0 {
		return 0
	}
	return 2 * s.KineticEnergy() / float64(dof)
}

func (s Set) IsValid() bool {
	for i := range s {
		if !s[i].IsValid() {
			return false
		}
	}
	return true
}

// MaxType returns the largest type index in the set, or -1 when empty.
func (s Set) MaxType() int {
	m := -1
	for i := range s {
		if s[i].Type > m {
			m = s[i].Type
		}
	}
	return m
}
