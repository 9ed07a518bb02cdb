// Package analysis turns sampled simulator output into transport and
// equilibrium estimates.
//
//   - [Autocorrelation]: FFT-based time autocorrelation of a series
//   - [GreenKubo], [ShearViscosity]: viscosity from stress fluctuations
//   - [BlockAverage]: mean with a correlation-aware standard error
//   - [VelocityHistogram]: velocity distribution against Maxwell-Boltzmann
//
// # Viscosity
//
// Sample the stress every step and integrate its autocorrelation:
//
//	res, _ := s.Run(ctx, sim.RunConfig{Steps: 20000, SampleEvery: 1, Stress: true})
//	eta, _, err := analysis.ShearViscosity(res.Samples, dt, volume, temperature, 200)
package analysis
