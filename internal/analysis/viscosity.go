package analysis

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dpdsim/internal/sim"
)

var ErrTooShort = errors.New("analysis: series too short")

// GreenKubo integrates the autocorrelation of an off-diagonal stress
// series with the trapezoid rule and returns η = V/T·∫C(t)dt (k_B = 1)
// together with the running integral.
func GreenKubo(stress []float64, dt, volume, temperature float64, maxLag int) (float64, []float64, error) {
	if !(temperature > 0) || !(dt > 0) || !(volume > 0) {
		return 0, nil, fmt.Errorf("green-kubo: dt=%g volume=%g temperature=%g must be positive", dt, volume, temperature)
	}
	if len(stress) < 2 {
		return 0, nil, fmt.Errorf("green-kubo: %d samples: %w", len(stress), ErrTooShort)
	}
	eta, running := integrate(Autocorrelation(stress, maxLag), dt, volume/temperature)
	return eta, running, nil
}

func integrate(acf []float64, dt, scale float64) (float64, []float64) {
	running := make([]float64, len(acf))
	sum := 0.0
	for k := 1; k < len(acf); k++ {
		sum += 0.5 * (acf[k-1] + acf[k]) * dt
		running[k] = scale * sum
	}
	return scale * sum, running
}

// ShearViscosity averages the stress autocorrelation over the three
// off-diagonal components of the samples before integrating. dt is the
// time between consecutive samples.
func ShearViscosity(samples []sim.Sample, dt, volume, temperature float64, maxLag int) (float64, []float64, error) {
	var xy, xz, yz []float64
	for _, s := range samples {
		if !s.HasStress {
			continue
		}
		xy = append(xy, s.Stress.At(0, 1))
		xz = append(xz, s.Stress.At(0, 2))
		yz = append(yz, s.Stress.At(1, 2))
	}
	if len(xy) < 2 {
		return 0, nil, fmt.Errorf("shear viscosity: %d stress samples: %w", len(xy), ErrTooShort)
	}
	if !(temperature > 0) || !(dt > 0) || !(volume > 0) {
		return 0, nil, fmt.Errorf("shear viscosity: dt=%g volume=%g temperature=%g must be positive", dt, volume, temperature)
	}

	acf := Autocorrelation(xy, maxLag)
	floats.Add(acf, Autocorrelation(xz, maxLag))
	floats.Add(acf, Autocorrelation(yz, maxLag))
	floats.Scale(1.0/3, acf)

	eta, running := integrate(acf, dt, volume/temperature)
	return eta, running, nil
}
