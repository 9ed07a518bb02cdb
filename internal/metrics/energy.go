package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Temperature is the mean kinetic temperature over all observed steps.
type Temperature struct {
	name    string
	samples []float64
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (m *Temperature) Name() string { return m.name }

func (m *Temperature) Observe(_ *dynamo.Context, ps particle.Set) {
	m.samples = append(m.samples, ps.KineticTemperature())
}

func (m *Temperature) Value() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return floats.Sum(m.samples) / float64(len(m.samples))
}

func (m *Temperature) Reset() { m.samples = m.samples[:0] }

// KineticEnergy is the mean kinetic energy per particle.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (m *KineticEnergy) Name() string { return m.name }

func (m *KineticEnergy) Observe(_ *dynamo.Context, ps particle.Set) {
	if len(ps) == 0 {
		return
	}
	m.total += ps.KineticEnergy() / float64(len(ps))
	m.samples++
}

func (m *KineticEnergy) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *KineticEnergy) Reset() {
	m.total = 0
	m.samples = 0
}

// MomentumDrift is the largest deviation of the total momentum from its
// value at the first observation. Pairwise DPD forces keep it at round-off.
type MomentumDrift struct {
	name     string
	initial  dynamo.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(_ *dynamo.Context, ps particle.Set) {
	p := ps.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Norm())
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}
