package sim

import (
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Metric accumulates a scalar over the steps of a run.
type Metric interface {
	Name() string
	Observe(ctx *dynamo.Context, ps particle.Set)
	Value() float64
	Reset()
}

// Observer is notified of every sample taken during Run.
type Observer interface {
	OnSample(s Sample)
}

// EventObserver is implemented by observers that also want scheduled
// events after they have been applied.
type EventObserver interface {
	OnEvent(step int, ev Event)
}

type EventKind string

const (
	EventHeatUp         EventKind = "heat_up"
	EventCoolDown       EventKind = "cool_down"
	EventThermostatOff  EventKind = "thermostat_off"
	EventThermostatOn   EventKind = "thermostat_on"
	EventSetTemperature EventKind = "set_temperature"
)

// Event changes thermostat state before the step with index Step runs.
// Value is only read by EventSetTemperature.
type Event struct {
	Step  int       `yaml:"step" json:"step"`
	Kind  EventKind `yaml:"kind" json:"kind"`
	Value float64   `yaml:"value,omitempty" json:"value,omitempty"`
}

type RunConfig struct {
	Steps int
	// SampleEvery is the sampling stride in steps. Zero samples every step.
	SampleEvery int
	// Stress adds the DPD stress tensor to every sample.
	Stress bool
	Events []Event
}

type Sample struct {
	Step          int           `json:"step"`
	Time          float64       `json:"time"`
	Temperature   float64       `json:"temperature"`
	KineticEnergy float64       `json:"kinetic_energy"`
	Momentum      dynamo.Vec3   `json:"momentum"`
	Resorts       int           `json:"resorts"`
	Stress        dynamo.Tensor `json:"stress"`
	HasStress     bool          `json:"has_stress"`
}

type Result struct {
	Seed       int64
	Samples    []Sample
	StepsTaken int
	Resorts    int
	Metrics    map[string]float64
}

// Series extracts one field of every sample.
func (r *Result) Series(f func(Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = f(s)
	}
	return out
}
