package experiment

import (
	"context"
	"fmt"
	"log"

	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/dpd"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
	"github.com/san-kum/dpdsim/internal/random"
	"github.com/san-kum/dpdsim/internal/sim"
)

// Experiment builds simulators from a validated run configuration.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *log.Logger
	observers []func(seed int64) sim.Observer
}

func New(cfg *config.Config, logger *log.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Experiment{cfg: cfg, registry: NewRegistry(), logger: logger}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Observe attaches an observer to every simulator built afterwards.
func (e *Experiment) Observe(fn func(seed int64) sim.Observer) {
	e.observers = append(e.observers, fn)
}

// Build creates a simulator with its own context, table, particles and
// random source for the given seed.
func (e *Experiment) Build(seed int64) (*sim.Simulator, error) {
	cfg := e.cfg

	ctx := dynamo.NewContext(dynamo.Vec3(cfg.Box))
	ctx.Temperature = cfg.Temperature
	ctx.TimeStep = cfg.TimeStep
	ctx.Skin = cfg.Skin
	if cfg.Thermostat {
		ctx.Thermo = dynamo.ThermoDPD
	}

	table := dpd.NewTable(cfg.Types)
	for i, pc := range cfg.Pairs {
		p, err := pc.Params()
		if err != nil {
			return nil, fmt.Errorf("pairs[%d]: %w", i, err)
		}
		if err := table.SetParams(ctx, pc.A, pc.B, p); err != nil {
			return nil, fmt.Errorf("pairs[%d]: %w", i, err)
		}
	}

	pairs, err := e.registry.GetEnumerator(cfg.Neighbor)
	if err != nil {
		return nil, err
	}

	rng := random.New(seed)
	ps := particle.Lattice(cfg.Particles, cfg.Types, cfg.Mass, cfg.Temperature, ctx.Box, rng)

	s := sim.New(ctx, ps, table,
		sim.WithEnumerator(pairs),
		sim.WithSeed(seed),
		sim.WithRandom(rng),
		sim.WithLogger(e.logger),
	)
	for _, m := range e.registry.DefaultMetrics() {
		s.AddMetric(m)
	}
	for _, fn := range e.observers {
		if o := fn(seed); o != nil {
			s.AddObserver(o)
		}
	}
	if err := s.Setup(); err != nil {
		return nil, err
	}
	return s, nil
}

// RunConfig translates the schedule and sampling settings.
func (e *Experiment) RunConfig() sim.RunConfig {
	rc := sim.RunConfig{
		Steps:       e.cfg.Steps,
		SampleEvery: e.cfg.SampleEvery,
		Stress:      e.cfg.Stress,
	}
	for _, ev := range e.cfg.Schedule {
		rc.Events = append(rc.Events, sim.Event{Step: ev.Step, Kind: sim.EventKind(ev.Kind), Value: ev.Value})
	}
	return rc
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	s, err := e.Build(e.cfg.Seed)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, e.RunConfig())
}

// RunEnsemble runs n replicas with seeds cfg.Seed, cfg.Seed+1, ...
func (e *Experiment) RunEnsemble(ctx context.Context, n int) ([]*sim.Result, error) {
	return sim.NewEnsemble(e.Build, n, e.cfg.Seed).Run(ctx, e.RunConfig())
}
