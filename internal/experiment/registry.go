package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dpdsim/internal/config"
	"github.com/san-kum/dpdsim/internal/metrics"
	"github.com/san-kum/dpdsim/internal/neighbor"
	"github.com/san-kum/dpdsim/internal/sim"
)

type Registry struct {
	enumerators map[string]func() neighbor.Enumerator
}

func NewRegistry() *Registry {
	r := &Registry{
		enumerators: make(map[string]func() neighbor.Enumerator),
	}

	r.enumerators[config.NeighborCells] = func() neighbor.Enumerator { return neighbor.NewCellList() }
	r.enumerators[config.NeighborAllPairs] = func() neighbor.Enumerator { return neighbor.NewAllPairs() }

	return r
}

// GetEnumerator resolves a neighbor strategy name. The empty name selects
// the cell list.
func (r *Registry) GetEnumerator(name string) (neighbor.Enumerator, error) {
	if name == "" {
		name = config.NeighborCells
	}
	fn, ok := r.enumerators[name]
	if !ok {
		return nil, fmt.Errorf("unknown neighbor strategy: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListEnumerators() []string {
	names := make([]string, 0, len(r.enumerators))
	for name := range r.enumerators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewTemperature(),
		metrics.NewKineticEnergy(),
		metrics.NewMomentumDrift(),
		metrics.NewStability(50.0),
	}
}
