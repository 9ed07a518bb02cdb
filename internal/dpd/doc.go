// Package dpd implements the Dissipative Particle Dynamics thermostat.
//
// The package has three parts that share the per-type-pair [Coefficients]:
//
//   - [Table]: derives friction and noise prefactors from temperature,
//     friction and time step, and exposes the bulk switch-off, re-init and
//     annealing operations
//   - [PairForce]: the instantaneous longitudinal and transverse
//     friction+noise force of one interacting pair
//   - [Stress]: the deterministic DPD contribution to the stress tensor
//
// Noise prefactors follow the fluctuation-dissipation relation
//
//	σ = sqrt(24·T·γ/Δt)
//
// where the factor 24 (instead of 2) compensates for drawing uniform
// numbers in [-0.5, 0.5) rather than unit-variance Gaussians.
//
// # Thread Safety
//
// Table mutators must run while no force evaluation is in flight.
// PairForce reads the table and the context only and may run concurrently
// with other readers, but every caller needs its own random source.
package dpd
