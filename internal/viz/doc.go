// Package viz provides the terminal monitor for running DPD simulations.
//
// [Model] is a Bubble Tea model that steps a simulator on every tick and
// draws the particles on a Braille [Canvas], either as an x-y projection of
// the periodic box or as a rotatable 3D view. [App] wraps it with a preset
// picker.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	H      - Heat up (noise x √3)
//	C      - Cool down (noise / √3)
//	T      - Toggle the thermostat
//	V      - Switch between x-y and 3D view
//	Arrows - Orbit the 3D camera
//	+/-    - Steps per frame
//	N      - Cycle color themes
//	Q      - Quit
package viz
