package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dpdsim/internal/dpd"
	"github.com/san-kum/dpdsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Positive(t, cfg.TimeStep)
	assert.Equal(t, NeighborCells, cfg.Neighbor)
	require.Len(t, cfg.Pairs, 1)

	p, err := cfg.Pairs[0].Params()
	require.NoError(t, err)
	assert.Equal(t, dpd.LinearDecay, p.Weight)
	assert.Equal(t, dpd.Constant, p.TransWeight)
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
name: pair
particles: 2
temperature: 0
box: [4, 4, 4]
pairs:
  - {a: 0, b: 0, gamma: 1, r_cut: 1.5, weight: constant}
schedule:
  - {step: 5, kind: heat_up}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pair", cfg.Name)
	assert.Equal(t, 2, cfg.Particles)
	assert.Zero(t, cfg.Temperature)
	assert.Equal(t, [3]float64{4, 4, 4}, cfg.Box)
	assert.Equal(t, DefaultTimeStep, cfg.TimeStep)
	assert.Equal(t, 1.5, cfg.Pairs[0].Cutoff)
	assert.Equal(t, []EventConfig{{Step: 5, Kind: "heat_up"}}, cfg.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DPDSIM_TEMPERATURE", "2.5")
	t.Setenv("DPDSIM_SEED", "42")
	t.Setenv("DPDSIM_NEIGHBOR", NeighborAllPairs)

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: 1.0\nsteps: 10\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Temperature)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, NeighborAllPairs, cfg.Neighbor)
	assert.Equal(t, 10, cfg.Steps)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("DPDSIM_STEPS", "many")
	assert.Error(t, ApplyEnv(DefaultConfig()))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("anneal")
	require.NotNil(t, cfg)
	require.NoError(t, Save(path, cfg))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Types = 2
	cfg.Box[1] = 0
	cfg.Pairs = append(cfg.Pairs,
		PairConfig{A: 0, B: 2, Gamma: 1, Cutoff: 1},
		PairConfig{A: 1, B: 1, Gamma: -1, Cutoff: 1},
		PairConfig{A: 1, B: 0, Gamma: 1, Cutoff: 1, Weight: "cubic"},
	)
	cfg.Schedule = []EventConfig{{Step: 3, Kind: "melt"}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []error{
		dynamo.ErrParameterBounds,
		dynamo.ErrInvalidTypeIndex,
		dynamo.ErrUnknownWeightFunction,
		dynamo.ErrUnknownEvent,
	} {
		assert.True(t, errors.Is(err, want), "missing %v in %v", want, err)
	}
	assert.Contains(t, err.Error(), "box[1]")
}

func TestValidateCutoffAgainstBox(t *testing.T) {
	tests := []struct {
		name   string
		box    [3]float64
		cutoff float64
		trans  float64
		ok     bool
	}{
		{"fits", [3]float64{5, 5, 5}, 1, 0, true},
		{"exactly half", [3]float64{3, 4, 4}, 1, 0, true},
		{"short edge", [3]float64{5, 2, 5}, 1, 0, false},
		{"transverse reach", [3]float64{3, 3, 3}, 1, 1.25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Box = tt.box
			cfg.Skin = 0.5
			cfg.Pairs[0].Cutoff = tt.cutoff
			cfg.Pairs[0].TransGamma = 1
			cfg.Pairs[0].TransCutoff = tt.trans
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
				assert.Contains(t, err.Error(), "half the shortest box edge")
			}
		})
	}
}

func TestWarningsColdLattice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 125
	cfg.Temperature = 0
	cfg.Pairs[0].Cutoff = 1

	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "cold start")

	cfg.Particles = 216
	assert.Empty(t, cfg.Warnings())

	cfg.Particles = 125
	cfg.Temperature = 1
	assert.Empty(t, cfg.Warnings())
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name string
		ev   EventConfig
		ok   bool
	}{
		{"heat up", EventConfig{Step: 0, Kind: "heat_up"}, true},
		{"past end", EventConfig{Step: DefaultSteps, Kind: "cool_down"}, false},
		{"negative temperature", EventConfig{Step: 1, Kind: "set_temperature", Value: -1}, false},
		{"set temperature", EventConfig{Step: 1, Kind: "set_temperature", Value: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Schedule = []EventConfig{tt.ev}
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.NoError(t, cfg.Validate(), name)
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("binary")
	require.NotNil(t, cfg)
	cfg.Pairs[0].Gamma = 99

	assert.Equal(t, 4.5, Presets["binary"].Pairs[0].Gamma)
	assert.Nil(t, GetPreset("nonexistent"))
}
