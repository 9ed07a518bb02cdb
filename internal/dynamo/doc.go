// Package dynamo provides core simulation primitives for particle dynamics.
//
// The package defines the small value types and interfaces every other
// package in the module builds on:
//
//   - [Vec3]: 3-component vector used for positions, velocities and forces
//   - [Tensor]: 3x3 tensor stored row-major, used for stress
//   - [Context]: explicit simulation parameters (temperature, time step, box)
//   - [Random]: uniform random source consumed by stochastic forces
//
// # Example
//
//	ctx := dynamo.NewContext(dynamo.Vec3{10, 10, 10})
//	ctx.Temperature = 1.0
//	ctx.Thermo |= dynamo.ThermoDPD
//
// # Thread Safety
//
// A Context is plain data. Mutate it only between integration steps; the
// force kernels read it concurrently with nothing else.
package dynamo
