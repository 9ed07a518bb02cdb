package dpd

import (
	"fmt"
	"strings"

	"github.com/san-kum/dpdsim/internal/dynamo"
)

// WeightFunction selects the distance-weighting law ω(r).
type WeightFunction int

const (
	// Constant uses ω(r) = 1/r below the cutoff. It jumps to zero at the
	// cutoff.
	Constant WeightFunction = iota
	// LinearDecay uses ω(r) = 1/r − 1/r_c, which vanishes at the cutoff.
	LinearDecay
)

func (w WeightFunction) Valid() bool {
	return w == Constant || w == LinearDecay
}

func (w WeightFunction) String() string {
	switch w {
	case Constant:
		return "constant"
	case LinearDecay:
		return "linear"
	default:
		return fmt.Sprintf("WeightFunction(%d)", int(w))
	}
}

// ParseWeightFunction accepts the names used in run files. An empty
// string selects Constant.
func ParseWeightFunction(s string) (WeightFunction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "constant", "0":
		return Constant, nil
	case "linear", "linear_decay", "1":
		return LinearDecay, nil
	}
	return 0, fmt.Errorf("%q: %w", s, dynamo.ErrUnknownWeightFunction)
}

func weight(w WeightFunction, rCut, distInv float64) float64 {
	switch w {
	case Constant:
		return distInv
	case LinearDecay:
		return distInv - 1.0/rCut
	}
	panic(fmt.Sprintf("dpd: %v: %d", dynamo.ErrUnknownWeightFunction, int(w)))
}
