// Package automation runs batches of simulations over a parameter range.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/san-kum/dpdsim/internal/analysis"
	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/experiment"
	"github.com/san-kum/dpdsim/internal/sim"
	"gopkg.in/yaml.v3"
)

var ErrUnknownParam = errors.New("automation: unknown sweep parameter")

// Sweep varies one parameter of a base configuration. Explicit Values win
// over the Min/Max/Points range.
type Sweep struct {
	Param  string    `yaml:"param"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Points int       `yaml:"points"`
	Values []float64 `yaml:"values,omitempty"`
}

// SweepParams lists the parameters a sweep can vary.
var SweepParams = []string{"gamma", "trans_gamma", "cutoff", "temperature", "time_step"}

func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sw Sweep
	if err := yaml.Unmarshal(data, &sw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sw, nil
}

// Grid returns the parameter values in sweep order.
func (sw *Sweep) Grid() []float64 {
	if len(sw.Values) > 0 {
		return append([]float64(nil), sw.Values...)
	}
	switch {
	case sw.Points <= 0:
		return nil
	case sw.Points == 1:
		return []float64{sw.Min}
	}
	out := make([]float64, sw.Points)
	step := (sw.Max - sw.Min) / float64(sw.Points-1)
	for i := range out {
		out[i] = sw.Min + float64(i)*step
	}
	return out
}

// Apply sets the swept parameter on cfg. Pair parameters are set on every
// pair.
func (sw *Sweep) Apply(cfg *config.Config, v float64) error {
	switch sw.Param {
	case "gamma":
		for i := range cfg.Pairs {
			cfg.Pairs[i].Gamma = v
		}
	case "trans_gamma":
		for i := range cfg.Pairs {
			cfg.Pairs[i].TransGamma = v
		}
	case "cutoff":
		for i := range cfg.Pairs {
			cfg.Pairs[i].Cutoff = v
		}
	case "temperature":
		cfg.Temperature = v
	case "time_step":
		cfg.TimeStep = v
	default:
		return fmt.Errorf("%q: %w", sw.Param, ErrUnknownParam)
	}
	return nil
}

// SweepResult summarizes one point of a sweep. Temperature statistics are
// taken over the second half of the samples.
type SweepResult struct {
	Value         float64
	Temperature   float64
	StdErr        float64
	Target        float64
	MomentumDrift float64
	Resorts       int
	Stable        bool
	Err           error
}

// RunSweep runs the base configuration once per grid value. A point that
// diverges is recorded as unstable and the sweep continues; configuration
// errors and cancellation abort it.
func RunSweep(ctx context.Context, base *config.Config, sw *Sweep, logger *log.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	grid := sw.Grid()
	if len(grid) == 0 {
		return nil, fmt.Errorf("sweep %s: no points", sw.Param)
	}

	results := make([]SweepResult, 0, len(grid))
	for i, v := range grid {
		cfg := base.Clone()
		if err := sw.Apply(cfg, v); err != nil {
			return results, err
		}
		exp, err := experiment.New(cfg, nil)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sw.Param, v, err)
		}

		res, err := exp.Run(ctx)
		r := summarize(res, v, cfg.Temperature)
		switch {
		case errors.Is(err, dynamo.ErrContextCanceled):
			return results, err
		case err != nil:
			r.Stable, r.Err = false, err
		}
		results = append(results, r)
		logger.Printf("sweep %d/%d: %s=%.4g T=%.4f stable=%v", i+1, len(grid), sw.Param, v, r.Temperature, r.Stable)
	}
	return results, nil
}

func summarize(res *sim.Result, v, target float64) SweepResult {
	r := SweepResult{Value: v, Target: target, Stable: true}
	if res == nil || len(res.Samples) == 0 {
		return r
	}
	temps := res.Series(func(s sim.Sample) float64 { return s.Temperature })
	r.Temperature, r.StdErr = analysis.BlockAverage(temps[len(temps)/2:], 5)
	r.MomentumDrift = res.Metrics["momentum_drift"]
	r.Resorts = res.Resorts
	return r
}

// StableCount returns how many sweep points finished without diverging.
func StableCount(results []SweepResult) int {
	n := 0
	for _, r := range results {
		if r.Stable {
			n++
		}
	}
	return n
}
