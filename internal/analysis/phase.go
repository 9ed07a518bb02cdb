package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dpdsim/internal/particle"
)

// Histogram is a binned velocity-component distribution.
type Histogram struct {
	Min, Width float64
	Counts     []int
	Total      int
}

// Density is the normalized probability density of bin i.
func (h *Histogram) Density(i int) float64 {
	if h.Total == 0 || h.Width == 0 {
		return 0
	}
	return float64(h.Counts[i]) / (float64(h.Total) * h.Width)
}

func (h *Histogram) Center(i int) float64 {
	return h.Min + (float64(i)+0.5)*h.Width
}

// VelocityHistogram bins every velocity component of the non-virtual
// particles over [−limit, limit].
func VelocityHistogram(ps particle.Set, bins int, limit float64) *Histogram {
	if bins < 1 {
		bins = 1
	}
	h := &Histogram{Min: -limit, Width: 2 * limit / float64(bins), Counts: make([]int, bins)}
	for i := range ps {
		if ps[i].Virtual {
			continue
		}
		for _, v := range ps[i].Vel {
			k := int((v - h.Min) / h.Width)
			if k < 0 || k >= bins {
				continue
			}
			h.Counts[k]++
			h.Total++
		}
	}
	return h
}

// MaxwellBoltzmann is the density of one velocity component at the given
// temperature and mass.
func MaxwellBoltzmann(v, temperature, mass float64) float64 {
	s2 := temperature / mass
	return math.Exp(-v*v/(2*s2)) / math.Sqrt(2*math.Pi*s2)
}

// MaxDeviation is the largest absolute difference between the histogram
// density and the Maxwell-Boltzmann density at the bin centers.
func (h *Histogram) MaxDeviation(temperature, mass float64) float64 {
	m := 0.0
	for i := range h.Counts {
		m = math.Max(m, math.Abs(h.Density(i)-MaxwellBoltzmann(h.Center(i), temperature, mass)))
	}
	return m
}

// HistogramToASCII draws the histogram as horizontal bars with the
// Maxwell-Boltzmann reference marked by '|'.
func HistogramToASCII(h *Histogram, width int, temperature, mass float64) string {
	if h == nil || h.Total == 0 {
		return ""
	}

	peak := 0.0
	for i := range h.Counts {
		peak = math.Max(peak, math.Max(h.Density(i), MaxwellBoltzmann(h.Center(i), temperature, mass)))
	}
	if peak == 0 {
		peak = 1
	}

	var sb strings.Builder
	for i := range h.Counts {
		row := []rune(strings.Repeat(" ", width))
		bar := int(h.Density(i) / peak * float64(width-1))
		for j := 0; j <= bar && j < width; j++ {
			row[j] = '█'
		}
		if ref := int(MaxwellBoltzmann(h.Center(i), temperature, mass) / peak * float64(width-1)); ref >= 0 && ref < width {
			row[ref] = '|'
		}
		fmt.Fprintf(&sb, "%7.2f %s\n", h.Center(i), string(row))
	}
	return sb.String()
}
