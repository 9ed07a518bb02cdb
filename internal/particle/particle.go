// Package particle holds the per-particle state the integrator and the DPD
// force loop read and write.
package particle

import "github.com/san-kum/dpdsim/internal/dynamo"

// Axis is a bit set of coordinate axes.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ

	AxisNone Axis = 0
	AxisAll       = AxisX | AxisY | AxisZ
)

// FixedOn reports whether axis j (0, 1 or 2) is in the set.
func (a Axis) FixedOn(j int) bool {
	return a&(1<<uint(j)) != 0
}

type Particle struct {
	ID   int
	Type int

	Pos   dynamo.Vec3
	Vel   dynamo.Vec3
	Force dynamo.Vec3
	Mass  float64

	// Fixed lists axes the integrator must never move.
	Fixed Axis
	// Virtual particles are positioned by other means and skipped
	// by translational integration.
	Virtual bool

	// OldPos is the position recorded at the last neighbor rebuild.
	OldPos dynamo.Vec3
}

func (p *Particle) IsValid() bool {
	return p.Pos.IsValid() && p.Vel.IsValid() && p.Force.IsValid()
}
