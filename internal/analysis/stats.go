package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x) / float64(len(x))
}

// BlockAverage splits x into nBlocks equal blocks, dropping the remainder,
// and returns the mean of the block means with its standard error. Blocks
// longer than the correlation time give an honest error bar for
// correlated samples.
func BlockAverage(x []float64, nBlocks int) (mean, stderr float64) {
	if nBlocks < 1 || len(x) < nBlocks {
		return Mean(x), math.NaN()
	}
	size := len(x) / nBlocks
	means := make([]float64, nBlocks)
	for b := range means {
		means[b] = Mean(x[b*size : (b+1)*size])
	}

	mean = Mean(means)
	if nBlocks == 1 {
		return mean, math.NaN()
	}
	dev := make([]float64, nBlocks)
	copy(dev, means)
	floats.AddConst(-mean, dev)
	variance := floats.Dot(dev, dev) / float64(nBlocks-1)
	return mean, math.Sqrt(variance / float64(nBlocks))
}

// RunningMean returns the cumulative mean after each element.
func RunningMean(x []float64) []float64 {
	out := make([]float64, len(x))
	floats.CumSum(out, x)
	for i := range out {
		out[i] /= float64(i + 1)
	}
	return out
}
