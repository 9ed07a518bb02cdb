// Package integrators advances particle state in time.
package integrators

import (
	"sync/atomic"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Rotator propagates orientational degrees of freedom. It is only called
// when the context has FeatureRotation set.
type Rotator interface {
	// PropagateOrientation runs before the translational update of Step1.
	PropagateOrientation(ctx *dynamo.Context, ps particle.Set)
	// ApplyTorques converts accumulated torques after Step2.
	ApplyTorques(ctx *dynamo.Context, ps particle.Set)
}

type Option func(*VelocityVerlet)

func WithRotation(r Rotator) Option {
	return func(v *VelocityVerlet) { v.rot = r }
}

// WithMinChunk sets the smallest particle range handed to one worker.
func WithMinChunk(n int) Option {
	return func(v *VelocityVerlet) {
		if n > 0 {
			v.minChunk = n
		}
	}
}

// VelocityVerlet is the two-stage integrator used under the DPD
// thermostat. A step is Step1, a force evaluation, then Step2.
type VelocityVerlet struct {
	rot      Rotator
	minChunk int
	resort   atomic.Bool
}

func NewVelocityVerlet(opts ...Option) *VelocityVerlet {
	v := &VelocityVerlet{minChunk: 256}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Step1 applies the first half kick and the drift to every non-virtual
// particle, flags a resort when a particle has moved more than half the
// skin since the last rebuild, and advances ctx.Time by one time step.
func (v *VelocityVerlet) Step1(ctx *dynamo.Context, ps particle.Set) {
	if v.rot != nil && ctx.Has(dynamo.FeatureRotation) {
		v.rot.PropagateOrientation(ctx, ps)
	}

	dt := ctx.TimeStep
	halfDt := 0.5 * dt
	limit := 0.5 * ctx.Skin
	limit2 := limit * limit

	dynamo.ParallelFor(len(ps), v.minChunk, func(start, end int) {
		moved := false
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Virtual {
				continue
			}
			for j := 0; j < 3; j++ {
				if p.Fixed.FixedOn(j) {
					continue
				}
				p.Vel[j] += halfDt * p.Force[j] / p.Mass
				p.Pos[j] += dt * p.Vel[j]
			}
			if p.Pos.Sub(p.OldPos).Norm2() > limit2 {
				moved = true
			}
		}
		if moved {
			v.resort.Store(true)
		}
	})

	ctx.Time += dt
}

// Step2 completes the velocity update with the freshly evaluated forces.
func (v *VelocityVerlet) Step2(ctx *dynamo.Context, ps particle.Set) {
	halfDt := 0.5 * ctx.TimeStep

	dynamo.ParallelFor(len(ps), v.minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Virtual {
				continue
			}
			for j := 0; j < 3; j++ {
				if p.Fixed.FixedOn(j) {
					continue
				}
				p.Vel[j] += halfDt * p.Force[j] / p.Mass
			}
		}
	})

	if v.rot != nil && ctx.Has(dynamo.FeatureRotation) {
		v.rot.ApplyTorques(ctx, ps)
	}
}

// NeedsResort reports whether any Step1 since the last ClearResort moved a
// particle past the half-skin threshold.
func (v *VelocityVerlet) NeedsResort() bool { return v.resort.Load() }

func (v *VelocityVerlet) ClearResort() { v.resort.Store(false) }
