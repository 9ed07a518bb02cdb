package dynamo

import "math"

// Thermo is a bit set of active thermostats.
type Thermo uint8

const (
	ThermoOff Thermo = 0
	ThermoDPD Thermo = 1
)

// Feature is a runtime capability resolved once at setup.
type Feature uint8

const (
	FeatureRotation Feature = 1 << iota
)

// Context carries the simulation-wide parameters the kernels read. It is
// passed explicitly to every operation instead of living in package state.
type Context struct {
	Temperature float64
	TimeStep    float64
	Thermo      Thermo
	Features    Feature

	// Box is the periodic box edge length along each axis.
	Box Vec3
	// Skin is the extra range added to the cutoff when building cells.
	Skin float64
	// MaxCut is the largest interaction cutoff currently configured.
	MaxCut float64

	// Time is the simulation clock, advanced by the integrator.
	Time float64
}

func NewContext(box Vec3) *Context {
	return &Context{
		TimeStep: 0.01,
		Box:      box,
		Skin:     0.4,
	}
}

func (c *Context) DPDActive() bool { return c.Thermo&ThermoDPD != 0 }

func (c *Context) Has(f Feature) bool { return c.Features&f != 0 }

func (c *Context) Volume() float64 {
	return c.Box[0] * c.Box[1] * c.Box[2]
}

// MinimumImage folds a separation vector into the nearest periodic image.
// Axes with a non-positive box length are treated as open.
func (c *Context) MinimumImage(d Vec3) Vec3 {
	for i := 0; i < 3; i++ {
		l := c.Box[i]
		if l <= 0 {
			continue
		}
		d[i] -= l * math.Round(d[i]/l)
	}
	return d
}

// Random is a sequential source of uniform draws in [0, 1).
type Random interface {
	Uniform() float64
}
