// Package random supplies the uniform sources the stochastic DPD force
// consumes. Each simulator owns one source; replicas never share one.
package random

import (
	"math/rand"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

// Source is a seeded sequential generator. It is not safe for concurrent use.
type Source struct {
	r *rand.Rand
}

var _ dynamo.Random = (*Source)(nil)

func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

func (s *Source) Uniform() float64 { return s.r.Float64() }

// NormFloat64 lets a Source seed particle velocities as well.
func (s *Source) NormFloat64() float64 { return s.r.NormFloat64() }

// Counting wraps a source and records how many draws were taken.
type Counting struct {
	Src   dynamo.Random
	Draws int
}

func (c *Counting) Uniform() float64 {
	c.Draws++
	return c.Src.Uniform()
}

// Sequence replays fixed values in order and wraps around.
type Sequence struct {
	Values []float64
	next   int
}

func (s *Sequence) Uniform() float64 {
	if len(s.Values) == 0 {
		return 0.5
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
