package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

func twoParticles(v1, v2 dynamo.Vec3) particle.Set {
	return particle.Set{{Mass: 1, Vel: v1}, {Mass: 1, Vel: v2}}
}

func TestTemperature(t *testing.T) {
	m := NewTemperature()
	ctx := dynamo.NewContext(dynamo.Vec3{1, 1, 1})

	// 2·E/dof = 2·(0.5·3)/6 = 0.5 and 2·(0.5·9)/6 = 1.5
	m.Observe(ctx, twoParticles(dynamo.Vec3{1, 1, 1}, dynamo.Vec3{}))
	m.Observe(ctx, twoParticles(dynamo.Vec3{3, 0, 0}, dynamo.Vec3{}))

	if math.Abs(m.Value()-1.0) > 1e-12 {
		t.Errorf("expected mean temperature 1.0, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero temperature after reset")
	}
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy()
	ctx := dynamo.NewContext(dynamo.Vec3{1, 1, 1})

	m.Observe(ctx, twoParticles(dynamo.Vec3{2, 0, 0}, dynamo.Vec3{0, 2, 0}))
	if math.Abs(m.Value()-2.0) > 1e-12 {
		t.Errorf("expected 2.0 per particle, got %f", m.Value())
	}

	m.Observe(ctx, particle.Set{})
	if math.Abs(m.Value()-2.0) > 1e-12 {
		t.Errorf("empty set changed the mean to %f", m.Value())
	}
}

func TestMomentumDrift(t *testing.T) {
	m := NewMomentumDrift()
	ctx := dynamo.NewContext(dynamo.Vec3{1, 1, 1})

	m.Observe(ctx, twoParticles(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1, 0, 0}))
	m.Observe(ctx, twoParticles(dynamo.Vec3{2, 0, 0}, dynamo.Vec3{-2, 0, 0}))
	if m.Value() != 0 {
		t.Errorf("exchange between particles reported drift %g", m.Value())
	}

	m.Observe(ctx, twoParticles(dynamo.Vec3{0, 3, 0}, dynamo.Vec3{0, 1, 0}))
	if math.Abs(m.Value()-4.0) > 1e-12 {
		t.Errorf("expected drift 4.0, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	ctx := dynamo.NewContext(dynamo.Vec3{1, 1, 1})

	m.Observe(ctx, twoParticles(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{}))
	m.Observe(ctx, twoParticles(dynamo.Vec3{20, 0, 0}, dynamo.Vec3{}))
	m.Observe(ctx, twoParticles(dynamo.Vec3{math.NaN(), 0, 0}, dynamo.Vec3{}))
	m.Observe(ctx, twoParticles(dynamo.Vec3{}, dynamo.Vec3{}))

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Error("expected full stability after reset")
	}
}
