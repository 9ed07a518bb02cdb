package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/sim"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("binary")
	cfg.Particles = 64
	cfg.Box = [3]float64{4, 4, 4}
	cfg.Steps = 40
	cfg.SampleEvery = 10
	cfg.Schedule = []config.EventConfig{{Step: 20, Kind: "heat_up"}}
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Pairs[0].B = 9

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidTypeIndex))
}

func TestBuild(t *testing.T) {
	e, err := New(smallConfig(), nil)
	require.NoError(t, err)

	s, err := e.Build(3)
	require.NoError(t, err)

	assert.Len(t, s.Particles(), 64)
	assert.Equal(t, int64(3), s.Seed())
	assert.Equal(t, 1.0, s.Context().MaxCut)
	assert.True(t, s.Context().DPDActive())
	require.NotNil(t, s.Table().Lookup(1, 0))
	assert.Equal(t, 2.0, s.Table().Lookup(1, 0).TransGamma)
}

func TestRunAppliesSchedule(t *testing.T) {
	e, err := New(smallConfig(), nil)
	require.NoError(t, err)
	obs := &countingObserver{}
	e.Observe(func(int64) sim.Observer { return obs })

	rc := e.RunConfig()
	require.Len(t, rc.Events, 1)
	assert.Equal(t, sim.EventHeatUp, rc.Events[0].Kind)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, res.StepsTaken)
	assert.Len(t, res.Samples, 5)
	assert.Equal(t, 5, obs.n)
	assert.Contains(t, res.Metrics, "temperature")
	assert.Less(t, res.Metrics["momentum_drift"], 1e-9)
}

type countingObserver struct{ n int }

func (c *countingObserver) OnSample(sim.Sample) { c.n++ }

func TestRunEnsemble(t *testing.T) {
	e, err := New(smallConfig(), nil)
	require.NoError(t, err)

	results, err := e.RunEnsemble(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, e.Config().Seed, results[0].Seed)
	assert.Equal(t, e.Config().Seed+1, results[1].Seed)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{config.NeighborAllPairs, config.NeighborCells}, r.ListEnumerators())

	en, err := r.GetEnumerator("")
	require.NoError(t, err)
	assert.IsType(t, &neighbor.CellList{}, en)

	_, err = r.GetEnumerator("octree")
	assert.Error(t, err)
	assert.Len(t, r.DefaultMetrics(), 4)
}
