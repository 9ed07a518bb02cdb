package sim

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/san-kum/dpdsim/internal/dpd"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/integrators"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/particle"
	"github.com/san-kum/dpdsim/internal/random"
)

// Simulator drives a particle system under the DPD thermostat: velocity
// Verlet with a stochastic pair force evaluated between the two stages.
type Simulator struct {
	ctx   *dynamo.Context
	ps    particle.Set
	table *dpd.Table
	pairs neighbor.Enumerator
	integ *integrators.VelocityVerlet
	rng   dynamo.Random
	seed  int64

	metrics   []Metric
	observers []Observer
	log       *log.Logger

	step    int
	resorts int
	ready   bool
}

type Option func(*Simulator)

func WithEnumerator(e neighbor.Enumerator) Option {
	return func(s *Simulator) { s.pairs = e }
}

func WithIntegrator(v *integrators.VelocityVerlet) Option {
	return func(s *Simulator) { s.integ = v }
}

// WithSeed replaces the random source with a fresh seeded one.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.seed = seed
		s.rng = random.New(seed)
	}
}

func WithRandom(r dynamo.Random) Option {
	return func(s *Simulator) { s.rng = r }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

func New(ctx *dynamo.Context, ps particle.Set, table *dpd.Table, opts ...Option) *Simulator {
	s := &Simulator{
		ctx:   ctx,
		ps:    ps,
		table: table,
		pairs: neighbor.NewCellList(),
		integ: integrators.NewVelocityVerlet(),
		seed:  1,
		rng:   random.New(1),
		log:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Context() *dynamo.Context { return s.ctx }
func (s *Simulator) Particles() particle.Set  { return s.ps }
func (s *Simulator) Table() *dpd.Table        { return s.table }
func (s *Simulator) Seed() int64              { return s.seed }
func (s *Simulator) StepCount() int           { return s.step }
func (s *Simulator) Resorts() int             { return s.resorts }

// Setup checks the particles against the table, derives the maximum
// cutoff, builds the neighbor structure and evaluates the initial forces.
// It is called by the first Step when omitted.
func (s *Simulator) Setup() error {
	for i := range s.ps {
		p := &s.ps[i]
		if !p.IsValid() {
			return fmt.Errorf("particle %d: %w", p.ID, dynamo.ErrInvalidState)
		}
		if !(p.Mass > 0) && !p.Virtual {
			return fmt.Errorf("particle %d: mass=%g: %w", p.ID, p.Mass, dynamo.ErrParameterBounds)
		}
		if p.Type < 0 || p.Type >= s.table.MaxTypes() {
			return fmt.Errorf("particle %d: type %d: %w", p.ID, p.Type, dynamo.ErrInvalidTypeIndex)
		}
	}
	if !(s.ctx.TimeStep > 0) {
		return fmt.Errorf("time_step=%g: %w", s.ctx.TimeStep, dynamo.ErrParameterBounds)
	}

	s.ctx.MaxCut = s.table.MaxCutoff()
	s.rebuild()
	s.computeForces()
	s.ready = true
	return nil
}

func (s *Simulator) rebuild() {
	s.ps.Fold(s.ctx.Box)
	s.ps.MarkRebuilt()
	s.pairs.Rebuild(s.ctx, s.ps)
	s.integ.ClearResort()
}

func (s *Simulator) computeForces() {
	s.ps.ZeroForces()
	dpd.AddForces(s.ctx, s.rng, s.table, s.pairs, s.ps)
}

// Step advances the system by one time step.
func (s *Simulator) Step() error {
	if !s.ready {
		if err := s.Setup(); err != nil {
			return err
		}
	}

	s.integ.Step1(s.ctx, s.ps)
	if s.integ.NeedsResort() {
		s.rebuild()
		s.resorts++
	}
	s.computeForces()
	s.integ.Step2(s.ctx, s.ps)
	s.step++

	if !s.ps.IsValid() {
		return &dynamo.SimulationError{Step: s.step, Time: s.ctx.Time, Wrapped: dynamo.ErrUnstable}
	}
	return nil
}

// Apply changes thermostat state. It must not run concurrently with Step.
func (s *Simulator) Apply(ev Event) error {
	var err error
	switch ev.Kind {
	case EventHeatUp:
		s.table.HeatUp()
	case EventCoolDown:
		s.table.CoolDown()
	case EventThermostatOff:
		err = s.table.SetThermostat(s.ctx, false)
	case EventThermostatOn:
		err = s.table.SetThermostat(s.ctx, true)
	case EventSetTemperature:
		old := s.ctx.Temperature
		s.ctx.Temperature = ev.Value
		if err = s.table.Retune(s.ctx); err != nil {
			s.ctx.Temperature = old
		}
	default:
		err = fmt.Errorf("%q: %w", ev.Kind, dynamo.ErrUnknownEvent)
	}
	if err != nil {
		return err
	}

	s.log.Printf("step %d: %s", s.step, ev.Kind)
	for _, o := range s.observers {
		if eo, ok := o.(EventObserver); ok {
			eo.OnEvent(s.step, ev)
		}
	}
	return nil
}

// Stress returns the deterministic DPD stress tensor of the current state.
func (s *Simulator) Stress() dynamo.Tensor {
	return dpd.Stress(s.ctx, s.table, s.pairs, s.ps)
}

func (s *Simulator) sample(withStress bool) Sample {
	sm := Sample{
		Step:          s.step,
		Time:          s.ctx.Time,
		Temperature:   s.ps.KineticTemperature(),
		KineticEnergy: s.ps.KineticEnergy(),
		Momentum:      s.ps.Momentum(),
		Resorts:       s.resorts,
	}
	if withStress {
		sm.Stress = s.Stress()
		sm.HasStress = true
	}
	return sm
}

func (cfg RunConfig) validate() error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample stride must not be negative, got %d", cfg.SampleEvery)
	}
	for _, ev := range cfg.Events {
		if ev.Step < 0 || ev.Step >= cfg.Steps {
			return fmt.Errorf("event %s at step %d outside [0,%d)", ev.Kind, ev.Step, cfg.Steps)
		}
		switch ev.Kind {
		case EventHeatUp, EventCoolDown, EventThermostatOff, EventThermostatOn, EventSetTemperature:
		default:
			return fmt.Errorf("%q: %w", ev.Kind, dynamo.ErrUnknownEvent)
		}
	}
	return nil
}

// Run advances the system cfg.Steps steps from its current state. Events
// are applied before the step whose index (relative to the start of this
// run) they name. Samples are taken before the first step, every
// SampleEvery steps and after the last step. On cancellation or
// divergence the partial result is returned with the error.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !s.ready {
		if err := s.Setup(); err != nil {
			return nil, err
		}
	}

	every := cfg.SampleEvery
	if every == 0 {
		every = 1
	}
	events := append([]Event(nil), cfg.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Step < events[j].Step })

	result := &Result{
		Seed:    s.seed,
		Samples: make([]Sample, 0, cfg.Steps/every+2),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	record := func() {
		sm := s.sample(cfg.Stress)
		result.Samples = append(result.Samples, sm)
		for _, o := range s.observers {
			o.OnSample(sm)
		}
	}
	finish := func() {
		result.Resorts = s.resorts
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}

	startResorts := s.resorts
	record()

	next := 0
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			finish()
			return result, &dynamo.SimulationError{
				Step:    s.step,
				Time:    s.ctx.Time,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		for next < len(events) && events[next].Step == i {
			if err := s.Apply(events[next]); err != nil {
				finish()
				return result, &dynamo.SimulationError{Step: s.step, Time: s.ctx.Time, Wrapped: err}
			}
			next++
		}

		if err := s.Step(); err != nil {
			finish()
			return result, err
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.ctx, s.ps)
		}
		if (i+1)%every == 0 || i+1 == cfg.Steps {
			record()
		}
	}

	finish()
	s.log.Printf("ran %d steps to t=%.4f, %d resorts", result.StepsTaken, s.ctx.Time, s.resorts-startResorts)
	return result, nil
}

// RunWithCallback steps until callback returns false or steps are
// exhausted. The callback sees the state after every step.
func (s *Simulator) RunWithCallback(ctx context.Context, steps int, callback func(*Simulator) bool) error {
	if !s.ready {
		if err := s.Setup(); err != nil {
			return err
		}
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
		if !callback(s) {
			return nil
		}
	}
	return nil
}
