package metrics

import (
	"math"

	"github.com/san-kum/dpdsim/internal/dynamo"
	"github.com/san-kum/dpdsim/internal/particle"
)

// Stability is the fraction of observed steps in which no particle had a
// velocity component above threshold or a non-finite coordinate.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ *dynamo.Context, ps particle.Set) {
	s.samples++
	for i := range ps {
		if !ps[i].IsValid() {
			s.violations++
			return
		}
		for _, v := range ps[i].Vel {
			if math.Abs(v) > s.threshold {
				s.violations++
				return
			}
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
