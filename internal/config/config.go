package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dpdsim/internal/dpd"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

const (
	DefaultParticles   = 375
	DefaultBox         = 5.0
	DefaultMass        = 1.0
	DefaultTemperature = 1.0
	DefaultTimeStep    = 0.01
	DefaultSkin        = 0.4
	DefaultSteps       = 1000
	DefaultSampleEvery = 10
	DefaultGamma       = 4.5
	DefaultCutoff      = 1.0
	DefaultDataDir     = "./runs"
)

const (
	NeighborCells    = "cells"
	NeighborAllPairs = "all-pairs"
)

// Config describes one run. Fields tagged env can be overridden from the
// environment after the file is read.
type Config struct {
	Name        string     `yaml:"name"`
	Particles   int        `yaml:"particles" env:"DPDSIM_PARTICLES"`
	Types       int        `yaml:"types"`
	Mass        float64    `yaml:"mass"`
	Box         [3]float64 `yaml:"box,flow"`
	Temperature float64    `yaml:"temperature" env:"DPDSIM_TEMPERATURE"`
	TimeStep    float64    `yaml:"time_step" env:"DPDSIM_TIME_STEP"`
	Skin        float64    `yaml:"skin" env:"DPDSIM_SKIN"`
	Thermostat  bool       `yaml:"thermostat" env:"DPDSIM_THERMOSTAT"`
	Seed        int64      `yaml:"seed" env:"DPDSIM_SEED"`
	Steps       int        `yaml:"steps" env:"DPDSIM_STEPS"`
	SampleEvery int        `yaml:"sample_every" env:"DPDSIM_SAMPLE_EVERY"`
	Stress      bool       `yaml:"stress" env:"DPDSIM_STRESS"`
	Neighbor    string     `yaml:"neighbor" env:"DPDSIM_NEIGHBOR"`
	DataDir     string     `yaml:"data_dir" env:"DPDSIM_DATA_DIR"`

	Pairs    []PairConfig  `yaml:"pairs"`
	Schedule []EventConfig `yaml:"schedule,omitempty"`
}

type PairConfig struct {
	A           int     `yaml:"a"`
	B           int     `yaml:"b"`
	Gamma       float64 `yaml:"gamma"`
	Cutoff      float64 `yaml:"r_cut"`
	Weight      string  `yaml:"weight,omitempty"`
	TransGamma  float64 `yaml:"trans_gamma,omitempty"`
	TransCutoff float64 `yaml:"trans_r_cut,omitempty"`
	TransWeight string  `yaml:"trans_weight,omitempty"`
}

type EventConfig struct {
	Step  int     `yaml:"step"`
	Kind  string  `yaml:"kind"`
	Value float64 `yaml:"value,omitempty"`
}

var eventKinds = map[string]bool{
	"heat_up":         true,
	"cool_down":       true,
	"thermostat_off":  true,
	"thermostat_on":   true,
	"set_temperature": true,
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "default",
		Particles:   DefaultParticles,
		Types:       1,
		Mass:        DefaultMass,
		Box:         [3]float64{DefaultBox, DefaultBox, DefaultBox},
		Temperature: DefaultTemperature,
		TimeStep:    DefaultTimeStep,
		Skin:        DefaultSkin,
		Thermostat:  true,
		Seed:        1,
		Steps:       DefaultSteps,
		SampleEvery: DefaultSampleEvery,
		Neighbor:    NeighborCells,
		DataDir:     DefaultDataDir,
		Pairs: []PairConfig{
			{A: 0, B: 0, Gamma: DefaultGamma, Cutoff: DefaultCutoff, Weight: "linear"},
		},
	}
}

// Load reads a YAML run file over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overwrites fields whose DPDSIM_* variable is set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Pairs = append([]PairConfig(nil), c.Pairs...)
	out.Schedule = append([]EventConfig(nil), c.Schedule...)
	return &out
}

// Params converts a pair entry to thermostat parameters.
func (p PairConfig) Params() (dpd.Params, error) {
	w, err := dpd.ParseWeightFunction(p.Weight)
	if err != nil {
		return dpd.Params{}, err
	}
	tw, err := dpd.ParseWeightFunction(p.TransWeight)
	if err != nil {
		return dpd.Params{}, err
	}
	return dpd.Params{
		Gamma:       p.Gamma,
		Cutoff:      p.Cutoff,
		Weight:      w,
		TransGamma:  p.TransGamma,
		TransCutoff: p.TransCutoff,
		TransWeight: tw,
	}, nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func (c *Config) minEdge() float64 {
	return math.Min(c.Box[0], math.Min(c.Box[1], c.Box[2]))
}

func (c *Config) maxCutoff() float64 {
	rc := 0.0
	for _, p := range c.Pairs {
		rc = math.Max(rc, math.Max(p.Cutoff, p.TransCutoff))
	}
	return rc
}

// Warnings reports settings that are valid but will not behave as intended.
func (c *Config) Warnings() []string {
	var out []string
	if c.Temperature == 0 && c.Particles > 0 {
		sp := particle.LatticeSpacing(c.Particles, dynamo.Vec3(c.Box))
		spacing := math.Min(sp[0], math.Min(sp[1], sp[2]))
		if rc := c.maxCutoff(); rc > 0 && spacing >= rc {
			out = append(out, fmt.Sprintf(
				"cold start with lattice spacing %.4g >= r_cut %.4g: no pair is in range, the thermostat will not act",
				spacing, rc))
		}
	}
	return out
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Particles <= 0 {
		bad("particles=%d: %w", c.Particles, dynamo.ErrParameterBounds)
	}
	if c.Types < 1 {
		bad("types=%d: %w", c.Types, dynamo.ErrParameterBounds)
	}
	if !(c.Mass > 0) {
		bad("mass=%g: %w", c.Mass, dynamo.ErrParameterBounds)
	}
	for i, l := range c.Box {
		if !(l > 0) || math.IsInf(l, 0) {
			bad("box[%d]=%g: %w", i, l, dynamo.ErrParameterBounds)
		}
	}
	if !finiteNonNegative(c.Temperature) {
		bad("temperature=%g: %w", c.Temperature, dynamo.ErrParameterBounds)
	}
	if !(c.TimeStep > 0) || math.IsInf(c.TimeStep, 0) {
		bad("time_step=%g: %w", c.TimeStep, dynamo.ErrParameterBounds)
	}
	if !finiteNonNegative(c.Skin) {
		bad("skin=%g: %w", c.Skin, dynamo.ErrParameterBounds)
	}
	if c.Steps <= 0 {
		bad("steps=%d: %w", c.Steps, dynamo.ErrParameterBounds)
	}
	if c.SampleEvery < 0 {
		bad("sample_every=%d: %w", c.SampleEvery, dynamo.ErrParameterBounds)
	}
	switch c.Neighbor {
	case "", NeighborCells, NeighborAllPairs:
	default:
		bad("neighbor %q: want %s or %s", c.Neighbor, NeighborCells, NeighborAllPairs)
	}

	for i, p := range c.Pairs {
		if p.A < 0 || p.A >= c.Types || p.B < 0 || p.B >= c.Types {
			bad("pairs[%d] (%d,%d): %w", i, p.A, p.B, dynamo.ErrInvalidTypeIndex)
		}
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"gamma", p.Gamma}, {"r_cut", p.Cutoff},
			{"trans_gamma", p.TransGamma}, {"trans_r_cut", p.TransCutoff},
		} {
			if !finiteNonNegative(f.v) {
				bad("pairs[%d] %s=%g: %w", i, f.name, f.v, dynamo.ErrParameterBounds)
			}
		}
		if _, err := p.Params(); err != nil {
			bad("pairs[%d]: %w", i, err)
		}
		if reach := math.Max(p.Cutoff, p.TransCutoff) + c.Skin; reach > c.minEdge()/2 {
			bad("pairs[%d] r_cut+skin=%g exceeds half the shortest box edge %g: %w",
				i, reach, c.minEdge(), dynamo.ErrParameterBounds)
		}
	}

	for i, ev := range c.Schedule {
		if !eventKinds[ev.Kind] {
			bad("schedule[%d] %q: %w", i, ev.Kind, dynamo.ErrUnknownEvent)
		}
		if ev.Step < 0 || ev.Step >= c.Steps {
			bad("schedule[%d] step %d outside [0,%d)", i, ev.Step, c.Steps)
		}
		if ev.Kind == "set_temperature" && !finiteNonNegative(ev.Value) {
			bad("schedule[%d] temperature=%g: %w", i, ev.Value, dynamo.ErrParameterBounds)
		}
	}

	return errors.Join(errs...)
}
