// Package telemetry exports simulator progress as Prometheus metrics.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/dpdsim/internal/sim"
)

// Recorder is a sim.Observer and sim.EventObserver feeding its own
// registry. One recorder per simulator.
type Recorder struct {
	reg *prometheus.Registry

	steps       prometheus.Counter
	resorts     prometheus.Counter
	events      *prometheus.CounterVec
	temperature prometheus.Gauge
	kinetic     prometheus.Gauge
	simTime     prometheus.Gauge
	pressure    prometheus.Gauge

	mu          sync.Mutex
	lastStep    int
	lastResorts int
}

var (
	_ sim.Observer      = (*Recorder)(nil)
	_ sim.EventObserver = (*Recorder)(nil)
)

func NewRecorder(run string) *Recorder {
	labels := prometheus.Labels{"run": run}
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dpdsim", Name: "steps_total",
			Help: "Integrator steps completed.", ConstLabels: labels,
		}),
		resorts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dpdsim", Name: "resorts_total",
			Help: "Neighbor rebuilds triggered by particle displacement.", ConstLabels: labels,
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dpdsim", Name: "events_total",
			Help: "Scheduled thermostat events applied.", ConstLabels: labels,
		}, []string{"kind"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dpdsim", Name: "kinetic_temperature",
			Help: "Kinetic temperature at the last sample.", ConstLabels: labels,
		}),
		kinetic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dpdsim", Name: "kinetic_energy",
			Help: "Total kinetic energy at the last sample.", ConstLabels: labels,
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dpdsim", Name: "simulation_time",
			Help: "Simulation clock at the last sample.", ConstLabels: labels,
		}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dpdsim", Name: "dpd_pressure",
			Help: "DPD contribution to the pressure at the last stress sample.", ConstLabels: labels,
		}),
	}
	r.reg.MustRegister(r.steps, r.resorts, r.events, r.temperature, r.kinetic, r.simTime, r.pressure)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Recorder) OnSample(s sim.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d := s.Step - r.lastStep; d > 0 {
		r.steps.Add(float64(d))
	}
	if d := s.Resorts - r.lastResorts; d > 0 {
		r.resorts.Add(float64(d))
	}
	r.lastStep, r.lastResorts = s.Step, s.Resorts

	r.temperature.Set(s.Temperature)
	r.kinetic.Set(s.KineticEnergy)
	r.simTime.Set(s.Time)
	if s.HasStress {
		r.pressure.Set(s.Stress.Pressure())
	}
}

func (r *Recorder) OnEvent(_ int, ev sim.Event) {
	r.events.WithLabelValues(string(ev.Kind)).Inc()
}
