package sim

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds an independent replica for a seed. Replicas must not
// share particles, tables or random sources.
type Factory func(seed int64) (*Simulator, error)

type Ensemble struct {
	build     Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// Run executes every replica concurrently with consecutive seeds starting
// at seedStart. Results are ordered by seed.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			s, err := e.build(seed)
			if err != nil {
				errs[idx] = fmt.Errorf("replica %d: %w", idx, err)
				return
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
