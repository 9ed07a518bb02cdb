package config

import "sort"

// Presets are ready-made runs selectable by name.
var Presets = map[string]*Config{
	"fluid": {
		Name: "fluid", Particles: 375, Types: 1, Mass: 1, Box: [3]float64{5, 5, 5},
		Temperature: 1.0, TimeStep: 0.01, Skin: 0.4, Thermostat: true, Seed: 1,
		Steps: 2000, SampleEvery: 10, Neighbor: NeighborCells,
		Pairs: []PairConfig{{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "linear"}},
	},
	"binary": {
		Name: "binary", Particles: 648, Types: 2, Mass: 1, Box: [3]float64{6, 6, 6},
		Temperature: 1.0, TimeStep: 0.01, Skin: 0.4, Thermostat: true, Seed: 1,
		Steps: 2000, SampleEvery: 10, Neighbor: NeighborCells,
		Pairs: []PairConfig{
			{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "linear"},
			{A: 0, B: 1, Gamma: 4.5, Cutoff: 1.0, Weight: "linear", TransGamma: 2.0, TransCutoff: 1.0, TransWeight: "linear"},
			{A: 1, B: 1, Gamma: 3.0, Cutoff: 1.0, Weight: "linear"},
		},
	},
	"shear": {
		Name: "shear", Particles: 375, Types: 1, Mass: 1, Box: [3]float64{5, 5, 5},
		Temperature: 1.0, TimeStep: 0.01, Skin: 0.4, Thermostat: true, Seed: 1,
		Steps: 5000, SampleEvery: 1, Stress: true, Neighbor: NeighborCells,
		Pairs: []PairConfig{{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "linear", TransGamma: 4.5, TransCutoff: 1.0, TransWeight: "linear"}},
	},
	"anneal": {
		Name: "anneal", Particles: 375, Types: 1, Mass: 1, Box: [3]float64{5, 5, 5},
		Temperature: 1.0, TimeStep: 0.01, Skin: 0.4, Thermostat: true, Seed: 1,
		Steps: 3000, SampleEvery: 10, Neighbor: NeighborCells,
		Pairs: []PairConfig{{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "linear"}},
		Schedule: []EventConfig{
			{Step: 500, Kind: "heat_up"},
			{Step: 1500, Kind: "cool_down"},
		},
	},
	"quench": {
		Name: "quench", Particles: 375, Types: 1, Mass: 1, Box: [3]float64{5, 5, 5},
		Temperature: 2.0, TimeStep: 0.01, Skin: 0.4, Thermostat: true, Seed: 1,
		Steps: 2000, SampleEvery: 10, Neighbor: NeighborCells,
		Pairs: []PairConfig{{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "constant"}},
		Schedule: []EventConfig{
			{Step: 1000, Kind: "set_temperature", Value: 0.5},
		},
	},
	"free": {
		Name: "free", Particles: 125, Types: 1, Mass: 1, Box: [3]float64{5, 5, 5},
		Temperature: 1.0, TimeStep: 0.01, Skin: 0.4, Thermostat: false, Seed: 1,
		Steps: 1000, SampleEvery: 10, Neighbor: NeighborCells,
		Pairs: []PairConfig{{A: 0, B: 0, Gamma: 4.5, Cutoff: 1.0, Weight: "linear"}},
		Schedule: []EventConfig{
			{Step: 500, Kind: "thermostat_on"},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	if out.DataDir == "" {
		out.DataDir = DefaultDataDir
	}
	return out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
