package dynamo

import "math"

type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Norm2() float64 {
	return v.Dot(v)
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Tensor is a 3x3 tensor in row-major order: T[3*i+j] = T_ij.
type Tensor [9]float64

// AddOuter accumulates a⊗b into t.
func (t *Tensor) AddOuter(a, b Vec3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[3*i+j] += a[i] * b[j]
		}
	}
}

func (t Tensor) Scale(f float64) Tensor {
	for i := range t {
		t[i] *= f
	}
	return t
}

func (t Tensor) At(i, j int) float64 {
	return t[3*i+j]
}

func (t Tensor) Trace() float64 {
	return t[0] + t[4] + t[8]
}

// Pressure is one third of the trace.
func (t Tensor) Pressure() float64 {
	return t.Trace() / 3
}
